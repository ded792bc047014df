// Package reconcile turns a holdings snapshot plus current positions into a
// validated set of transaction and metadata actions. The engine is pure:
// rows and holdings in, actions out — persistence belongs to the caller.
package reconcile

import (
	"fmt"
	"math"
	"strings"

	"github.com/folioapp/folio/internal/models"
	"github.com/google/uuid"
)

// quantityEpsilon absorbs spreadsheet rounding when comparing declared and
// current quantities.
const quantityEpsilon = 1e-6

// Reconcile computes the delta actions for a batch of snapshot rows against
// current holdings. Every row is processed independently: a bad row yields a
// typed ERROR action and never aborts the rest of the batch.
func Reconcile(rows []models.SnapshotRow, holdings map[string]models.Holding) []models.DeltaAction {
	actions := make([]models.DeltaAction, 0, len(rows))

	for i := range rows {
		row := &rows[i]
		holding := holdings[row.ISIN]

		quantityAction := reconcileQuantity(row, holding)
		if quantityAction != nil {
			actions = append(actions, *quantityAction)
		}

		// Metadata updates are orthogonal to the quantity decision, but a
		// BUY/SELL already carries the row's asset type, so emitting a
		// separate update there would duplicate it.
		if row.AssetType != "" && !strings.EqualFold(row.AssetType, holding.AssetType) {
			carried := quantityAction != nil &&
				(quantityAction.Kind == models.DeltaBuy || quantityAction.Kind == models.DeltaSell)
			if !carried {
				actions = append(actions, models.DeltaAction{
					ID:          uuid.NewString(),
					Kind:        models.DeltaMetadataUpdate,
					ISIN:        row.ISIN,
					NewQuantity: holding.Units,
					AssetType:   row.AssetType,
					Description: row.Description,
					Line:        row.Line,
				})
			}
		}
	}

	return actions
}

// reconcileQuantity applies the per-row transition table. A nil return means
// the row is a pure price update with no quantity action.
func reconcileQuantity(row *models.SnapshotRow, holding models.Holding) *models.DeltaAction {
	switch strings.ToUpper(strings.TrimSpace(row.Operation)) {
	case "BUY":
		if row.Quantity == nil {
			return errorAction(row, holding, models.ErrorMissingQuantity,
				"BUY row without a quantity")
		}
		if *row.Quantity <= 0 {
			return errorAction(row, holding, models.ErrorInvalidQuantity,
				fmt.Sprintf("BUY quantity must be positive, got %g", *row.Quantity))
		}
		// A brand-new position needs a usable price and date, or the
		// resulting transaction could never be valued.
		if holding.Units == 0 && (row.Price == nil || *row.Price <= 0 || row.Date == nil) {
			return errorAction(row, holding, models.ErrorInconsistentPosition,
				"new position requires a price and date")
		}
		return &models.DeltaAction{
			ID:             uuid.NewString(),
			Kind:           models.DeltaBuy,
			ISIN:           row.ISIN,
			QuantityChange: *row.Quantity,
			NewQuantity:    holding.Units + *row.Quantity,
			Price:          row.Price,
			Date:           row.Date,
			AssetType:      row.AssetType,
			Description:    row.Description,
			Line:           row.Line,
		}

	case "SELL":
		if row.Quantity == nil {
			return errorAction(row, holding, models.ErrorMissingQuantity,
				"SELL row without a quantity")
		}
		// A negative quantity would slip past the oversell guard and grow
		// the position, so the sign check comes first.
		if *row.Quantity <= 0 {
			return errorAction(row, holding, models.ErrorInvalidQuantity,
				fmt.Sprintf("SELL quantity must be positive, got %g", *row.Quantity))
		}
		if *row.Quantity > holding.Units+quantityEpsilon {
			return errorAction(row, holding, models.ErrorOversell,
				fmt.Sprintf("cannot sell %g units, holding %g", *row.Quantity, holding.Units))
		}
		return &models.DeltaAction{
			ID:             uuid.NewString(),
			Kind:           models.DeltaSell,
			ISIN:           row.ISIN,
			QuantityChange: *row.Quantity,
			NewQuantity:    holding.Units - *row.Quantity,
			Price:          row.Price,
			Date:           row.Date,
			AssetType:      row.AssetType,
			Description:    row.Description,
			Line:           row.Line,
		}

	case "":
		// No declared operation: price-only update candidate.
		if row.Quantity == nil {
			return nil
		}
		if math.Abs(*row.Quantity-holding.Units) <= quantityEpsilon {
			return nil
		}
		// Quantity differs from the current position and the row says
		// nothing about how. Refusing to guess beats inventing a trade.
		return errorAction(row, holding, models.ErrorAmbiguousMismatch,
			fmt.Sprintf("declared quantity %g does not match current %g and no operation given",
				*row.Quantity, holding.Units))

	default:
		return errorAction(row, holding, models.ErrorUnknownOperation,
			fmt.Sprintf("unknown operation %q", row.Operation))
	}
}

func errorAction(row *models.SnapshotRow, holding models.Holding, kind models.ErrorKind, msg string) *models.DeltaAction {
	return &models.DeltaAction{
		ID:          uuid.NewString(),
		Kind:        models.DeltaError,
		ISIN:        row.ISIN,
		Error:       kind,
		NewQuantity: holding.Units,
		Price:       row.Price,
		Date:        row.Date,
		AssetType:   row.AssetType,
		Description: row.Description,
		Line:        row.Line,
		Message:     msg,
	}
}
