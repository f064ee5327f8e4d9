package collection

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/acopio-api/internal/domain"
	"github.com/jhoicas/acopio-api/internal/domain/entity"
	"github.com/jhoicas/acopio-api/internal/domain/record"
	"github.com/shopspring/decimal"
)

// CurrentPrice lee el único registro global de precio. Si no existe devuelve
// un ajuste vacío (no usable), que los llamantes tratan como precio no
// disponible.
func (uc *UseCase) CurrentPrice(ctx context.Context) (entity.PriceSetting, error) {
	docs, err := uc.store.GetAll(ctx, record.KindSettings,
		record.Filter{}.Where("id", record.OpEq, entity.PriceSettingID))
	if err != nil {
		return entity.PriceSetting{}, fmt.Errorf("leer precio global: %w", err)
	}
	if len(docs) == 0 {
		return entity.PriceSetting{ID: entity.PriceSettingID}, nil
	}
	return record.PriceFromDoc(docs[0]), nil
}

// SetPrice fija el precio global por litro. Solo afecta a recogidas futuras:
// las ya registradas conservan el precio capturado en su creación.
func (uc *UseCase) SetPrice(ctx context.Context, updatedBy string, price decimal.Decimal) (entity.PriceSetting, error) {
	if !price.IsPositive() {
		return entity.PriceSetting{}, fmt.Errorf("%w: el precio debe ser mayor que cero", domain.ErrInvalidInput)
	}
	setting := entity.PriceSetting{
		ID:         entity.PriceSettingID,
		PricePerLt: price,
		UpdatedAt:  time.Now().UTC(),
		UpdatedBy:  updatedBy,
	}

	docs, err := uc.store.GetAll(ctx, record.KindSettings,
		record.Filter{}.Where("id", record.OpEq, entity.PriceSettingID))
	if err != nil {
		return entity.PriceSetting{}, fmt.Errorf("leer precio global: %w", err)
	}
	if len(docs) == 0 {
		if err := uc.store.Create(ctx, record.KindSettings, record.PriceToDoc(setting)); err != nil {
			return entity.PriceSetting{}, fmt.Errorf("crear precio global: %w", err)
		}
	} else {
		patch := record.Patch{
			"price_per_lt": setting.PricePerLt,
			"updated_at":   setting.UpdatedAt,
			"updated_by":   setting.UpdatedBy,
		}
		if err := uc.store.MutateOne(ctx, record.KindSettings, entity.PriceSettingID, patch); err != nil {
			return entity.PriceSetting{}, fmt.Errorf("actualizar precio global: %w", err)
		}
	}

	uc.log.Info().
		Str("precio", price.String()).
		Str("updated_by", updatedBy).
		Msg("precio por litro actualizado")
	return setting, nil
}
