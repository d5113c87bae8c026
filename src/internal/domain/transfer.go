package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type TransferClass string

const (
	TransferClassInternal      TransferClass = "internal"
	TransferClassCrossOwner    TransferClass = "cross-owner"
	TransferClassACH           TransferClass = "ach"
	TransferClassWire          TransferClass = "wire"
	TransferClassInternational TransferClass = "international"
)

func ParseTransferClass(raw string) (TransferClass, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case "", "internal":
		return TransferClassInternal, nil
	case "cross-owner", "p2p", "user":
		return TransferClassCrossOwner, nil
	case "ach", "domestic", "external":
		return TransferClassACH, nil
	case "wire":
		return TransferClassWire, nil
	case "international", "swift":
		return TransferClassInternational, nil
	default:
		return "", fmt.Errorf("%w: unknown transfer type %q", ErrValidation, raw)
	}
}

func (c TransferClass) IsExternal() bool {
	_, ok := externalTransferPolicies[c]
	return ok
}

// ExternalField names beneficiary details a transfer class may require.
type ExternalField string

const (
	FieldAccountNumber   ExternalField = "accountNumber"
	FieldRoutingNumber   ExternalField = "routingNumber"
	FieldRoutingOrSWIFT  ExternalField = "routingNumber|swiftCode"
	FieldSWIFT           ExternalField = "swiftCode"
	FieldIBANOrAccount   ExternalField = "iban|accountNumber"
	FieldBankName        ExternalField = "bankName"
	FieldBeneficiaryName ExternalField = "beneficiaryName"
	FieldCountry         ExternalField = "country"
)

// TransferPolicy is one row of the external transfer strategy table.
type TransferPolicy struct {
	Class            TransferClass
	FlatFee          decimal.Decimal
	UrgentSurcharge  decimal.Decimal
	FXSurchargeRate  decimal.Decimal
	MinAmount        decimal.Decimal
	MaxAmount        decimal.Decimal
	RequiredFields   []ExternalField
	DefaultChannel   string
	SettlementWindow string
}

var externalTransferPolicies = map[TransferClass]TransferPolicy{
	TransferClassACH: {
		Class:            TransferClassACH,
		FlatFee:          decimal.NewFromInt(3),
		UrgentSurcharge:  decimal.NewFromInt(10),
		FXSurchargeRate:  decimal.Zero,
		MinAmount:        decimal.NewFromFloat(0.01),
		MaxAmount:        decimal.NewFromInt(25000),
		RequiredFields:   []ExternalField{FieldAccountNumber, FieldRoutingNumber, FieldBeneficiaryName},
		DefaultChannel:   "ach",
		SettlementWindow: "1-3 business days",
	},
	TransferClassWire: {
		Class:            TransferClassWire,
		FlatFee:          decimal.NewFromInt(25),
		UrgentSurcharge:  decimal.NewFromInt(15),
		FXSurchargeRate:  decimal.Zero,
		MinAmount:        decimal.NewFromInt(100),
		MaxAmount:        decimal.NewFromInt(250000),
		RequiredFields:   []ExternalField{FieldAccountNumber, FieldRoutingOrSWIFT, FieldBankName, FieldBeneficiaryName},
		DefaultChannel:   "wire",
		SettlementWindow: "same business day",
	},
	TransferClassInternational: {
		Class:            TransferClassInternational,
		FlatFee:          decimal.NewFromInt(45),
		UrgentSurcharge:  decimal.NewFromInt(25),
		FXSurchargeRate:  decimal.NewFromFloat(0.01),
		MinAmount:        decimal.NewFromInt(50),
		MaxAmount:        decimal.NewFromInt(100000),
		RequiredFields:   []ExternalField{FieldSWIFT, FieldIBANOrAccount, FieldCountry, FieldBeneficiaryName},
		DefaultChannel:   "international",
		SettlementWindow: "3-5 business days",
	},
}

func PolicyFor(class TransferClass) (TransferPolicy, bool) {
	policy, ok := externalTransferPolicies[class]
	return policy, ok
}

// FeeBreakdown is the charge computed for an external transfer.
type FeeBreakdown struct {
	Class       TransferClass
	Amount      decimal.Decimal
	FlatFee     decimal.Decimal
	Urgent      decimal.Decimal
	FXSurcharge decimal.Decimal
	TotalFee    decimal.Decimal
	TotalDebit  decimal.Decimal
}

// Fees applies the policy's fee formula. The FX surcharge only applies when
// the beneficiary is paid in a currency other than USD.
func (p TransferPolicy) Fees(amount decimal.Decimal, urgent bool, destinationCurrency string) FeeBreakdown {
	breakdown := FeeBreakdown{
		Class:       p.Class,
		Amount:      amount,
		FlatFee:     p.FlatFee,
		Urgent:      decimal.Zero,
		FXSurcharge: decimal.Zero,
	}
	if urgent {
		breakdown.Urgent = p.UrgentSurcharge
	}

	ccy := strings.ToUpper(strings.TrimSpace(destinationCurrency))
	if p.FXSurchargeRate.GreaterThan(decimal.Zero) && ccy != "" && ccy != string(CurrencyUSD) {
		breakdown.FXSurcharge = amount.Mul(p.FXSurchargeRate).Round(2)
	}

	breakdown.TotalFee = breakdown.FlatFee.Add(breakdown.Urgent).Add(breakdown.FXSurcharge)
	breakdown.TotalDebit = amount.Add(breakdown.TotalFee)
	return breakdown
}

// CheckBounds fails with ErrAmountOutOfRange outside [MinAmount, MaxAmount].
func (p TransferPolicy) CheckBounds(amount decimal.Decimal) error {
	if amount.LessThan(p.MinAmount) {
		return fmt.Errorf("%w: %w: %s minimum is %s", ErrValidation, ErrAmountOutOfRange, p.Class, p.MinAmount.StringFixed(2))
	}
	if amount.GreaterThan(p.MaxAmount) {
		return fmt.Errorf("%w: %w: %s maximum is %s", ErrValidation, ErrAmountOutOfRange, p.Class, p.MaxAmount.StringFixed(2))
	}
	return nil
}

// ExternalAccountDetails describes a beneficiary outside the bank.
type ExternalAccountDetails struct {
	BeneficiaryName string `json:"beneficiaryName,omitempty"`
	BankName        string `json:"bankName,omitempty"`
	AccountNumber   string `json:"accountNumber,omitempty"`
	RoutingNumber   string `json:"routingNumber,omitempty"`
	SWIFTCode       string `json:"swiftCode,omitempty"`
	IBAN            string `json:"iban,omitempty"`
	Country         string `json:"country,omitempty"`
	Currency        string `json:"currency,omitempty"`
}

// Validate checks the details against the class's required fields.
func (d ExternalAccountDetails) Validate(policy TransferPolicy) error {
	var errs []string

	for _, field := range policy.RequiredFields {
		switch field {
		case FieldAccountNumber:
			if !isAccountNumber(d.AccountNumber) {
				errs = append(errs, "accountNumber must be 4-17 digits")
			}
		case FieldRoutingNumber:
			if !IsValidRoutingNumber(d.RoutingNumber) {
				errs = append(errs, "routingNumber must be a valid 9-digit ABA number")
			}
		case FieldRoutingOrSWIFT:
			if !IsValidRoutingNumber(d.RoutingNumber) && !IsValidSWIFT(d.SWIFTCode) {
				errs = append(errs, "a valid routingNumber or swiftCode is required")
			}
		case FieldSWIFT:
			if !IsValidSWIFT(d.SWIFTCode) {
				errs = append(errs, "swiftCode must be 8 or 11 characters")
			}
		case FieldIBANOrAccount:
			if strings.TrimSpace(d.IBAN) != "" {
				if !IsValidIBAN(d.IBAN) {
					errs = append(errs, "iban is not valid")
				}
			} else if !isAccountNumber(d.AccountNumber) {
				errs = append(errs, "iban or accountNumber is required")
			}
		case FieldBankName:
			if strings.TrimSpace(d.BankName) == "" {
				errs = append(errs, "bankName is required")
			}
		case FieldBeneficiaryName:
			if strings.TrimSpace(d.BeneficiaryName) == "" {
				errs = append(errs, "beneficiaryName is required")
			}
		case FieldCountry:
			country := strings.TrimSpace(d.Country)
			if len(country) != 2 || !lettersOnly(country) {
				errs = append(errs, "country must be a 2-letter ISO code")
			}
		}
	}

	if len(errs) > 0 {
		return Invalid(errs)
	}
	return nil
}

// IsValidRoutingNumber applies the ABA 3-7-1 checksum.
func IsValidRoutingNumber(value string) bool {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) != 9 || !digitsOnly(trimmed) {
		return false
	}

	weights := [9]int{3, 7, 1, 3, 7, 1, 3, 7, 1}
	sum := 0
	for i, ch := range trimmed {
		sum += int(ch-'0') * weights[i]
	}
	return sum != 0 && sum%10 == 0
}

func IsValidSWIFT(value string) bool {
	code := strings.ToUpper(strings.TrimSpace(value))
	if len(code) != 8 && len(code) != 11 {
		return false
	}
	if !lettersOnly(code[:6]) {
		return false
	}
	for _, ch := range code[6:] {
		if !(ch >= 'A' && ch <= 'Z') && !(ch >= '0' && ch <= '9') {
			return false
		}
	}
	return true
}

// IsValidIBAN runs the ISO 13616 mod-97 check.
func IsValidIBAN(value string) bool {
	iban := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(value), " ", ""))
	if len(iban) < 15 || len(iban) > 34 {
		return false
	}
	if !lettersOnly(iban[:2]) || !digitsOnly(iban[2:4]) {
		return false
	}

	rearranged := iban[4:] + iban[:4]
	remainder := 0
	for _, ch := range rearranged {
		switch {
		case ch >= '0' && ch <= '9':
			remainder = (remainder*10 + int(ch-'0')) % 97
		case ch >= 'A' && ch <= 'Z':
			remainder = (remainder*100 + int(ch-'A'+10)) % 97
		default:
			return false
		}
	}
	return remainder == 1
}

func isAccountNumber(value string) bool {
	trimmed := strings.TrimSpace(value)
	return len(trimmed) >= 4 && len(trimmed) <= 17 && digitsOnly(trimmed)
}

func digitsOnly(value string) bool {
	if value == "" {
		return false
	}
	for _, ch := range value {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

func lettersOnly(value string) bool {
	if value == "" {
		return false
	}
	for _, ch := range strings.ToUpper(value) {
		if ch < 'A' || ch > 'Z' {
			return false
		}
	}
	return true
}

// TransferRequest is the input of one createTransfer call.
type TransferRequest struct {
	OwnerID                string
	Class                  TransferClass
	FromAccount            AccountType
	ToAccount              AccountType
	Amount                 decimal.Decimal
	Currency               Currency
	Description            string
	HoldForApproval        bool
	RecipientEmail         string
	RecipientAccountNumber string
	RecipientRoutingNumber string
	External               *ExternalAccountDetails
	Urgent                 bool
	OTPProof               string
	Origin                 string
}

// TransferResult reports what createTransfer wrote. When RequiresOTP is set
// nothing was written.
type TransferResult struct {
	RequiresOTP   bool
	Reference     string
	CorrelationID string
	Status        TransactionStatus
	Transactions  []Transaction
	Fees          *FeeBreakdown
}

// HoldsTransferLimit reports whether tx is a leg of an external transfer,
// whose amount was reserved against the daily transfer limit when written.
func (tx Transaction) HoldsTransferLimit() bool {
	if tx.Type != TransactionTypeTransferOut && tx.Type != TransactionTypeFee {
		return false
	}
	raw, _ := tx.Metadata["transferType"].(string)
	class, err := ParseTransferClass(raw)
	return err == nil && class.IsExternal()
}
