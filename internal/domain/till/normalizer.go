package till

import (
	"fmt"
	"strings"
	"time"

	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Field aliases accepted by Normalize. Keys are matched after FoldLabel,
// so "cashUSD", "cash_usd" and "CashUsd" are the same field.
var (
	keyID              = []string{"id", "_id"}
	keyBranch          = []string{"branchId", "branch", "localidad", "localidadId"}
	keyCashierID       = []string{"cashierId", "cajeroId", "cajero", "userId"}
	keyCashierName     = []string{"cashierName", "nombreCajero", "cajeroNombre"}
	keyDay             = []string{"day", "dia", "fecha", "date"}
	keyTill            = []string{"tillNumber", "caja", "till", "numeroCaja"}
	keyShift           = []string{"shift", "turno"}
	keyRate            = []string{"exchangeRate", "tasa"}
	keySystemTotalBs   = []string{"systemTotalBs", "totalSistemaBs", "totalSistema"}
	keyReturnsBs       = []string{"returnsBs", "devolucionesBs", "devoluciones"}
	keyRechargeBs      = []string{"rechargeBs", "recargaBs", "recargas"}
	keyMobilePaymentBs = []string{"mobilePaymentBs", "pagomovilBs", "pagoMovilBs"}
	keyCashBs          = []string{"cashBs", "efectivoBs"}
	keyCashUSD         = []string{"cashUSD", "efectivoUsd"}
	keyZelleUSD        = []string{"zelleUSD", "zelle"}
	keyVoucherUSD      = []string{"voucherUSD", "valesUsd", "vales"}
	keyCardPoints      = []string{"cardPoints", "puntosVenta", "puntos"}
	keyStatus          = []string{"status", "estado"}
	keyVoided          = []string{"voided", "anulado", "deleted", "delete"}

	keyCardBank   = []string{"bank", "banco"}
	keyCardDebit  = []string{"debitBs", "debito", "debit"}
	keyCardCredit = []string{"creditBs", "credito", "credit"}
)

// fields is a raw record indexed by folded key
type fields map[string]any

func foldFields(raw map[string]any) fields {
	f := make(fields, len(raw))
	for k, v := range raw {
		fk := shared.FoldLabel(k)
		if _, seen := f[fk]; seen && v == nil {
			continue
		}
		f[fk] = v
	}
	return f
}

func (f fields) get(aliases []string) any {
	for _, a := range aliases {
		if v, ok := f[shared.FoldLabel(a)]; ok && v != nil {
			return v
		}
	}
	return nil
}

func (f fields) number(aliases []string) decimal.Decimal {
	return valueobject.ToNumberOrZero(f.get(aliases))
}

func (f fields) text(aliases []string) string {
	return toText(f.get(aliases))
}

// Normalize coerces an untyped upstream record into a Reconciliation.
// It never fails: malformed or absent numbers become 0, an absent or
// non-list cardPoints becomes empty, an unreadable day becomes the empty Day.
func Normalize(raw map[string]any) *Reconciliation {
	f := foldFields(raw)

	in := Input{
		BranchID:        shared.BranchID(f.text(keyBranch)),
		CashierID:       shared.CashierID(f.text(keyCashierID)),
		CashierName:     f.text(keyCashierName),
		Day:             toDay(f.get(keyDay)),
		TillNumber:      int(f.number(keyTill).IntPart()),
		Shift:           ParseShift(f.text(keyShift)),
		ExchangeRate:    f.number(keyRate),
		SystemTotalBs:   f.number(keySystemTotalBs),
		ReturnsBs:       f.number(keyReturnsBs),
		RechargeBs:      f.number(keyRechargeBs),
		MobilePaymentBs: f.number(keyMobilePaymentBs),
		CashBs:          f.number(keyCashBs),
		CashUSD:         f.number(keyCashUSD),
		ZelleUSD:        f.number(keyZelleUSD),
		VoucherUSD:      f.number(keyVoucherUSD),
		CardPoints:      toCardPoints(f.get(keyCardPoints)),
		Status:          ParseStatus(f.text(keyStatus)),
		Voided:          toBool(f.get(keyVoided)),
	}
	if id, err := uuid.Parse(f.text(keyID)); err == nil {
		in.ID = id
	}
	return FromInput(in)
}

// NormalizeAll normalizes a batch, keeping input order
func NormalizeAll(raws []map[string]any) []*Reconciliation {
	out := make([]*Reconciliation, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Normalize(raw))
	}
	return out
}

func toCardPoints(v any) []CardPoint {
	var items []any
	switch list := v.(type) {
	case []any:
		items = list
	case []map[string]any:
		items = make([]any, 0, len(list))
		for _, m := range list {
			items = append(items, m)
		}
	default:
		return nil
	}

	points := make([]CardPoint, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		f := foldFields(m)
		points = append(points, CardPoint{
			Bank:     f.text(keyCardBank),
			DebitBs:  f.number(keyCardDebit),
			CreditBs: f.number(keyCardCredit),
		})
	}
	return points
}

func toText(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case fmt.Stringer:
		return strings.TrimSpace(s.String())
	case float64, float32:
		return valueobject.ToNumberOrZero(s).String()
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func toDay(v any) valueobject.Day {
	switch d := v.(type) {
	case time.Time:
		return valueobject.DayOf(d)
	case string:
		return valueobject.LenientDay(d)
	}
	return ""
}

func toBool(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case string:
		switch shared.FoldLabel(b) {
		case "true", "1", "si", "yes", "y", "s":
			return true
		}
		return false
	}
	return !valueobject.ToNumberOrZero(v).IsZero()
}
