package merchant

import "encoding/json"

// PaymentStatus values used by the transactions API.
const (
	PaymentStatusNone      = "NONE"
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusFailed    = "FAILED"
	PaymentStatusCancelled = "CANCELLED"
	PaymentStatusExpired   = "EXPIRED"
)

// TransactionInitiator values used by the transactions API.
const (
	InitiatorMerchant         = "MERCHANT_INITIATED"
	InitiatorMerchantOperator = "MERCHANT_OPERATOR_INITIATED"
	InitiatorPayer            = "PAYER_INITIATED"
	InitiatorNone             = "NONE"
)

// Address is the shared postal/contact shape.
type Address struct {
	City          string `json:"city"`
	BusinessEmail string `json:"businessEmail"`
	PostalNumber  string `json:"postalNumber"`
}

// Merchant is the business entity operators belong to.
type Merchant struct {
	MerchantID          string  `json:"merchantId,omitempty"`
	CustomerID          string  `json:"customerIdId,omitempty"`
	BusinessType        string  `json:"businessType"`
	BusinessNumber      string  `json:"businessNumber"`
	BusinessName        string  `json:"businessName"`
	TradeLicenseNumber  string  `json:"tradeLicenseNumber"`
	TaxPayerIDNumber    string  `json:"taxPayerIdNumber"`
	BusinessPhoneNumber string  `json:"businessPhoneNumber"`
	ShortCode           string  `json:"shortCode"`
	Status              string  `json:"status"`
	Address             Address `json:"address"`
}

// Branch is a merchant location.
type Branch struct {
	MerchantBranchID               string  `json:"merchantBranchId"`
	BranchName                     string  `json:"branchName"`
	BranchCode                     string  `json:"branchCode"`
	BusinessPhoneNumber            string  `json:"businessPhoneNumber"`
	FaxNumber                      string  `json:"faxNumber"`
	PaymentReceivingAccountNumber  string  `json:"paymentReceivingAccountNumber"`
	Address                        Address `json:"address"`
}

// Operator is a merchant staff account.
type Operator struct {
	MerchantOperatorID string          `json:"merchantOperatorId"`
	OperatorCode       string          `json:"operatorCode"`
	OperatorRole       string          `json:"operatorRole"`
	FirstName          string          `json:"firstName"`
	MiddleName         string          `json:"middleName"`
	FullName           string          `json:"fullName"`
	Active             bool            `json:"active"`
	User               json.RawMessage `json:"user,omitempty"`
	MerchantBranch     *Branch         `json:"merchantBranch,omitempty"`
}

// OperatorRole describes an assignable role.
type OperatorRole struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions,omitempty"`
}

// Transaction is a payment record.
type Transaction struct {
	MerchantTransactionID string  `json:"merchantTransactionId"`
	MerchantID            string  `json:"merchantId"`
	MerchantBranchID      string  `json:"merchantBranchId,omitempty"`
	BusinessName          string  `json:"businessName"`
	MerchantBranchName    string  `json:"merchantBranchName"`
	OperatorID            string  `json:"operatorId,omitempty"`
	OperatorUsername      string  `json:"operatorUsername"`
	Amount                float64 `json:"amount"`
	TipAmount             float64 `json:"tipAmount"`
	CurrencyCode          string  `json:"currencyCode"`
	MerchantCategoryCode  string  `json:"merchantCategoryCode"`
	CountryCode           string  `json:"countryCode"`
	PaymentReference      string  `json:"paymentReference"`
	DynamicID             string  `json:"dynamicId"`
	TransactionRefID      string  `json:"transactionRefId"`
	PaymentStatus         string  `json:"paymentStatus"`
	TransactionInitiator  string  `json:"transactionInitiator"`
	ExpirationDate        string  `json:"expirationDate,omitempty"`
	InitiatedDate         string  `json:"initiatedDate,omitempty"`
	CompletedDate         string  `json:"completedDate,omitempty"`
	MBTransactionID       string  `json:"mbTransactionId,omitempty"`
	CoreTransactionID     string  `json:"coreTransactionId,omitempty"`
	MerchantAccountNumber string  `json:"merchantAccountNumber,omitempty"`
	PayerAccountNumber    string  `json:"payerAccountNumber,omitempty"`
	PayerID               string  `json:"payerId,omitempty"`
	PayerName             string  `json:"payerName,omitempty"`
	PayerPhone            string  `json:"payerPhone,omitempty"`
	QRData                string  `json:"qrData,omitempty"`
}
