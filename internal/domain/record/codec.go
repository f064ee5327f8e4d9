package record

import (
	"time"

	"github.com/jhoicas/acopio-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Codecs entre Document y las entidades de dominio. Los decodificadores son
// tolerantes con el tipo concreto de los valores (decimal, float64, string,
// int) porque el origen puede ser memoria, Postgres o JSON.

// UserFromDoc decodifica un usuario.
func UserFromDoc(d Document) entity.User {
	return entity.User{
		ID:           d.ID,
		Email:        asString(d.Data["email"]),
		PasswordHash: asString(d.Data["password_hash"]),
		Name:         asString(d.Data["name"]),
		Role:         entity.ParseRole(asString(d.Data["role"])),
		CreatedAt:    asTime(d.Data["created_at"]),
		UpdatedAt:    asTime(d.Data["updated_at"]),
	}
}

// UserToDoc codifica un usuario.
func UserToDoc(u entity.User) Document {
	return Document{
		ID: u.ID,
		Data: map[string]any{
			"email":         u.Email,
			"password_hash": u.PasswordHash,
			"name":          u.Name,
			"role":          string(u.Role),
			"created_at":    u.CreatedAt,
			"updated_at":    u.UpdatedAt,
		},
	}
}

// ProducerFromDoc decodifica un productor.
func ProducerFromDoc(d Document) entity.Producer {
	return entity.Producer{
		ID:               d.ID,
		Name:             asString(d.Data["name"]),
		Phone:            asString(d.Data["phone"]),
		Address:          asString(d.Data["address"]),
		UserID:           asString(d.Data["user_id"]),
		AssignedWorkerID: asString(d.Data["assigned_worker_id"]),
		CreatedAt:        asTime(d.Data["created_at"]),
	}
}

// ProducerToDoc codifica un productor.
func ProducerToDoc(p entity.Producer) Document {
	return Document{
		ID: p.ID,
		Data: map[string]any{
			"name":               p.Name,
			"phone":              p.Phone,
			"address":            p.Address,
			"user_id":            p.UserID,
			"assigned_worker_id": p.AssignedWorkerID,
			"created_at":         p.CreatedAt,
		},
	}
}

// EventFromDoc decodifica una recogida.
func EventFromDoc(d Document) entity.CollectionEvent {
	ev := entity.CollectionEvent{
		ID:         d.ID,
		ProducerID: asString(d.Data["producer_id"]),
		WorkerID:   asString(d.Data["worker_id"]),
		Date:       asTime(d.Data["date"]),
		QuantityLt: asDecimal(d.Data["quantity_lt"]),
		PricePerLt: asDecimal(d.Data["price_per_lt"]),
		Paid:       asBool(d.Data["is_paid"]),
	}
	if t := asTime(d.Data["payment_date"]); !t.IsZero() {
		ev.PaymentDate = &t
	}
	return ev
}

// EventToDoc codifica una recogida.
func EventToDoc(e entity.CollectionEvent) Document {
	data := map[string]any{
		"producer_id":  e.ProducerID,
		"worker_id":    e.WorkerID,
		"date":         e.Date,
		"quantity_lt":  e.QuantityLt,
		"price_per_lt": e.PricePerLt,
		"is_paid":      e.Paid,
	}
	if e.PaymentDate != nil {
		data["payment_date"] = *e.PaymentDate
	}
	return Document{ID: e.ID, Data: data}
}

// PriceFromDoc decodifica el ajuste global de precio.
func PriceFromDoc(d Document) entity.PriceSetting {
	return entity.PriceSetting{
		ID:         d.ID,
		PricePerLt: asDecimal(d.Data["price_per_lt"]),
		UpdatedAt:  asTime(d.Data["updated_at"]),
		UpdatedBy:  asString(d.Data["updated_by"]),
	}
}

// PriceToDoc codifica el ajuste global de precio.
func PriceToDoc(p entity.PriceSetting) Document {
	return Document{
		ID: p.ID,
		Data: map[string]any{
			"price_per_lt": p.PricePerLt,
			"updated_at":   p.UpdatedAt,
			"updated_by":   p.UpdatedBy,
		},
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case *time.Time:
		if t != nil {
			return *t
		}
	}
	return time.Time{}
}

func asDecimal(v any) decimal.Decimal {
	switch n := v.(type) {
	case decimal.Decimal:
		return n
	case float64:
		return decimal.NewFromFloat(n)
	case int:
		return decimal.NewFromInt(int64(n))
	case int64:
		return decimal.NewFromInt(n)
	case string:
		d, err := decimal.NewFromString(n)
		if err == nil {
			return d
		}
	}
	return decimal.Zero
}
