package finance

import (
	"errors"
	"testing"

	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func invoice(t *testing.T, branch shared.BranchID, amount valueobject.Money, r valueobject.ExchangeRate, issued valueobject.Day, status InvoiceStatus) *Invoice {
	t.Helper()
	inv, err := NewInvoice(branch, "Drogueria Nena", amount, r, issued)
	require.NoError(t, err)
	inv.Status = status
	return inv
}

func payment(t *testing.T, inv *Invoice, branch shared.BranchID, amount valueobject.Money, r valueobject.ExchangeRate) *Payment {
	t.Helper()
	var id *uuid.UUID
	if inv != nil {
		id = &inv.ID
	}
	p, err := NewPayment(id, branch, amount, r, PaymentStatusPartial, "2024-02-10")
	require.NoError(t, err)
	return p
}

func TestExposureByStatus(t *testing.T) {
	invoices := []*Invoice{
		invoice(t, "centro", usd("200"), valueobject.NoRate(), "2024-01-10", InvoiceStatusActive),
		invoice(t, "centro", bs("4050"), rate("40.5"), "2024-02-10", InvoiceStatusActive),
		invoice(t, "norte", usd("70"), valueobject.NoRate(), "2024-02-11", InvoiceStatusActive),
		invoice(t, "centro", usd("30"), valueobject.NoRate(), "2024-02-12", InvoiceStatusPaid),
		invoice(t, "centro", usd("999"), valueobject.NoRate(), "2024-02-12", InvoiceStatusVoid),
	}

	t.Run("active exposure per branch", func(t *testing.T) {
		res := ActiveExposureUSD(invoices, "centro")
		assert.True(t, res.AmountUSD.Equal(d("300")))
		assert.Equal(t, 2, res.InvoiceCount)
	})

	t.Run("empty branch means all", func(t *testing.T) {
		res := ActiveExposureUSD(invoices, "")
		assert.True(t, res.AmountUSD.Equal(d("370")))
	})

	t.Run("paid exposure honours issue date range", func(t *testing.T) {
		res, err := PaidExposureUSD(invoices, "centro", valueobject.Between("2024-02-01", "2024-02-28"))
		require.NoError(t, err)
		assert.True(t, res.AmountUSD.Equal(d("30")))

		res, err = PaidExposureUSD(invoices, "centro", valueobject.Between("2024-03-01", "2024-03-31"))
		require.NoError(t, err)
		assert.True(t, res.AmountUSD.IsZero())
	})

	t.Run("duplicated invoice rows count once", func(t *testing.T) {
		dup := append(invoices, invoices[0])
		res := ActiveExposureUSD(dup, "centro")
		assert.True(t, res.AmountUSD.Equal(d("300")))
	})

	t.Run("missing rate is counted, not fatal", func(t *testing.T) {
		broken := &Invoice{BranchID: "sur", OriginalAmount: d("100"), OriginalCurrency: valueobject.Bs, Status: InvoiceStatusActive}
		res := ActiveExposureUSD([]*Invoice{broken}, "sur")
		assert.True(t, res.AmountUSD.IsZero())
		assert.Equal(t, 1, res.RateMissingCount)
	})

	t.Run("invalid range", func(t *testing.T) {
		_, err := ExposureByStatus(invoices, "centro", InvoiceStatusPaid, valueobject.Between("2024-03-01", "2024-02-01"))
		assert.True(t, errors.Is(err, shared.ErrInvalidDateRange))
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := ExposureByStatus(invoices, "centro", "archived", valueobject.DateRange{})
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})
}

func TestPaymentsTotals(t *testing.T) {
	t.Run("two partial payments settle the invoice once", func(t *testing.T) {
		inv := invoice(t, "centro", usd("200"), valueobject.NoRate(), "2024-02-01", InvoiceStatusActive)
		payments := []*Payment{
			payment(t, inv, "centro", usd("80"), valueobject.NoRate()),
			payment(t, inv, "centro", usd("120"), valueobject.NoRate()),
		}

		sum := PaymentsTotals([]*Invoice{inv}, payments, "centro")
		require.Len(t, sum.Groups, 1)
		g := sum.Groups[0]
		assert.Equal(t, 2, g.PaymentCount)
		assert.True(t, g.PagosGeneralUSD.Equal(d("200")))
		assert.True(t, g.DiferencialPagosUSD.IsZero())
		assert.True(t, sum.FacturadoUSD.Equal(d("200")))
		assert.True(t, sum.PagosGeneralUSD.Equal(d("200")))
		assert.True(t, sum.DiferencialPagosUSD.IsZero())
	})

	t.Run("each payment converts at its own rate", func(t *testing.T) {
		inv := invoice(t, "centro", bs("8000"), rate("40"), "2024-02-01", InvoiceStatusActive) // 200 USD
		payments := []*Payment{
			payment(t, inv, "centro", bs("4000"), rate("40")), // 100 USD
			payment(t, inv, "centro", bs("4000"), rate("50")), // 80 USD
		}
		sum := PaymentsTotals([]*Invoice{inv}, payments, "")
		require.Len(t, sum.Groups, 1)
		assert.True(t, sum.Groups[0].PagosGeneralUSD.Equal(d("180")))
		assert.True(t, sum.Groups[0].DiferencialPagosUSD.Equal(d("-20")))
	})

	t.Run("unlinked and unknown-invoice payments are reported apart", func(t *testing.T) {
		inv := invoice(t, "centro", usd("50"), valueobject.NoRate(), "2024-02-01", InvoiceStatusPaid)
		ghost := invoice(t, "centro", usd("10"), valueobject.NoRate(), "2024-02-01", InvoiceStatusActive)
		payments := []*Payment{
			payment(t, inv, "centro", usd("50"), valueobject.NoRate()),
			payment(t, nil, "centro", usd("7"), valueobject.NoRate()),
			payment(t, ghost, "centro", usd("3"), valueobject.NoRate()),
			payment(t, nil, "norte", usd("100"), valueobject.NoRate()),
		}
		sum := PaymentsTotals([]*Invoice{inv}, payments, "centro")
		assert.Len(t, sum.Groups, 1)
		assert.True(t, sum.UnlinkedPaymentsUSD.Equal(d("10")))
		assert.Equal(t, 2, sum.UnlinkedCount)
		assert.True(t, sum.FacturadoUSD.Equal(d("50")))
	})

	t.Run("payment without branch inherits the invoice branch", func(t *testing.T) {
		inv := invoice(t, "norte", usd("20"), valueobject.NoRate(), "2024-02-01", InvoiceStatusActive)
		p := payment(t, inv, "norte", usd("20"), valueobject.NoRate())
		p.BranchID = ""
		assert.Len(t, PaymentsTotals([]*Invoice{inv}, []*Payment{p}, "norte").Groups, 1)
		assert.Empty(t, PaymentsTotals([]*Invoice{inv}, []*Payment{p}, "centro").Groups)
	})

	t.Run("groups are ordered by issue date", func(t *testing.T) {
		late := invoice(t, "centro", usd("1"), valueobject.NoRate(), "2024-03-01", InvoiceStatusActive)
		early := invoice(t, "centro", usd("1"), valueobject.NoRate(), "2024-01-01", InvoiceStatusActive)
		sum := PaymentsTotals([]*Invoice{late, early}, []*Payment{
			payment(t, late, "centro", usd("1"), valueobject.NoRate()),
			payment(t, early, "centro", usd("1"), valueobject.NoRate()),
		}, "centro")
		require.Len(t, sum.Groups, 2)
		assert.Equal(t, early.ID, sum.Groups[0].InvoiceID)
	})
}

func TestFoldsSkipNilEntries(t *testing.T) {
	inv := invoice(t, "centro", usd("50"), valueobject.NoRate(), "2024-02-01", InvoiceStatusActive)
	invoices := []*Invoice{nil, inv, nil}

	res, err := ExposureByStatus(invoices, "centro", InvoiceStatusActive, valueobject.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.InvoiceCount)
	assert.True(t, res.AmountUSD.Equal(d("50")))

	sum := PaymentsTotals(invoices, []*Payment{nil, payment(t, inv, "centro", usd("20"), valueobject.NoRate())}, "centro")
	require.Len(t, sum.Groups, 1)
	assert.True(t, sum.PagosGeneralUSD.Equal(d("20")))
	assert.Zero(t, sum.UnlinkedCount)
}
