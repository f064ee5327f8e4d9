package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/acopio-api/internal/domain"
	"github.com/jhoicas/acopio-api/internal/domain/record"
	"github.com/jhoicas/acopio-api/pkg/logger"
	"github.com/shopspring/decimal"
)

var _ record.Store = (*Store)(nil)

// kindMeta describe cómo se persiste cada tipo de registro: tabla, columnas
// permitidas y decodificación de filas a Document.
type kindMeta struct {
	table   string
	columns []string // sin incluir id
	orderBy string
	scan    func(rows pgx.Rows) (record.Document, error)
}

var kinds = map[record.Kind]kindMeta{
	record.KindUsers: {
		table:   "users",
		columns: []string{"email", "password_hash", "name", "role", "created_at", "updated_at"},
		orderBy: "created_at, id",
		scan:    scanUser,
	},
	record.KindProducers: {
		table:   "producers",
		columns: []string{"name", "phone", "address", "user_id", "assigned_worker_id", "created_at"},
		orderBy: "created_at, id",
		scan:    scanProducer,
	},
	record.KindEvents: {
		table:   "collection_events",
		columns: []string{"producer_id", "worker_id", "date", "quantity_lt", "price_per_lt", "is_paid", "payment_date"},
		orderBy: "date, id",
		scan:    scanEvent,
	},
	record.KindSettings: {
		table:   "settings",
		columns: []string{"price_per_lt", "updated_at", "updated_by"},
		orderBy: "id",
		scan:    scanSetting,
	},
}

// Store implementación del puerto record.Store sobre PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
	log  *logger.Logger

	mu   sync.Mutex
	subs map[record.Kind]map[*record.Subscription]record.Filter

	cancelListener context.CancelFunc
}

// NewStore construye el adaptador sobre el pool.
func NewStore(pool *pgxpool.Pool, log *logger.Logger) *Store {
	subs := make(map[record.Kind]map[*record.Subscription]record.Filter, len(kinds))
	for k := range kinds {
		subs[k] = make(map[*record.Subscription]record.Filter)
	}
	return &Store{pool: pool, log: log, subs: subs}
}

// GetAll devuelve el snapshot de los documentos que cumplen el filtro.
func (s *Store) GetAll(ctx context.Context, kind record.Kind, filter record.Filter) ([]record.Document, error) {
	meta, ok := kinds[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", record.ErrUnknownKind, kind)
	}
	where, args, err := buildWhere(meta, filter)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT id, %s FROM %s%s ORDER BY %s",
		strings.Join(meta.columns, ", "), meta.table, where, meta.orderBy)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", record.ErrTransport, meta.table, err)
	}
	defer rows.Close()

	var docs []record.Document
	for rows.Next() {
		doc, err := meta.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", meta.table, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows %s: %v", record.ErrTransport, meta.table, err)
	}
	return docs, nil
}

// Subscribe registra la suscripción, entrega el snapshot inicial y deja que
// el listener de NOTIFY la refresque en cada cambio del tipo.
func (s *Store) Subscribe(ctx context.Context, kind record.Kind, filter record.Filter) (*record.Subscription, error) {
	if _, ok := kinds[kind]; !ok {
		return nil, fmt.Errorf("%w: %s", record.ErrUnknownKind, kind)
	}
	initial, err := s.GetAll(ctx, kind, filter)
	if err != nil {
		return nil, err
	}
	var sub *record.Subscription
	sub = record.NewSubscription(func() {
		s.mu.Lock()
		delete(s.subs[kind], sub)
		s.mu.Unlock()
	})
	s.mu.Lock()
	s.subs[kind][sub] = filter
	s.mu.Unlock()

	sub.Push(initial)
	return sub, nil
}

// Create inserta un documento nuevo.
func (s *Store) Create(ctx context.Context, kind record.Kind, doc record.Document) error {
	meta, ok := kinds[kind]
	if !ok {
		return fmt.Errorf("%w: %s", record.ErrUnknownKind, kind)
	}
	cols := []string{"id"}
	placeholders := []string{"$1"}
	args := []any{doc.ID}
	for _, col := range meta.columns {
		v, present := doc.Data[col]
		if !present {
			continue
		}
		cols = append(cols, col)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)+1))
		args = append(args, v)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		meta.table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: insert %s: %v", record.ErrTransport, meta.table, err)
	}
	return nil
}

// MutateOne aplica un patch a un documento existente.
func (s *Store) MutateOne(ctx context.Context, kind record.Kind, id string, patch record.Patch) error {
	meta, ok := kinds[kind]
	if !ok {
		return fmt.Errorf("%w: %s", record.ErrUnknownKind, kind)
	}
	query, args, err := buildUpdate(meta, id, patch)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: update %s: %v", record.ErrTransport, meta.table, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s/%s", domain.ErrNotFound, kind, id)
	}
	return nil
}

// MutateBatch aplica todas las mutaciones en una transacción: o entran todas
// o (rollback mediante) ninguna. Si el rollback tras un fallo no se puede
// confirmar, se reporta ErrPartialApply: el llamante debe tratarlo como
// inconsistencia, no como fallo limpio.
func (s *Store) MutateBatch(ctx context.Context, kind record.Kind, muts []record.Mutation) error {
	if len(muts) == 0 {
		return nil
	}
	meta, ok := kinds[kind]
	if !ok {
		return fmt.Errorf("%w: %s", record.ErrUnknownKind, kind)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin batch: %v", record.ErrTransport, err)
	}

	for _, m := range muts {
		query, args, err := buildUpdate(meta, m.ID, m.Patch)
		if err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
		tag, err := tx.Exec(ctx, query, args...)
		if err == nil && tag.RowsAffected() == 0 {
			err = fmt.Errorf("%w: %s/%s", domain.ErrNotFound, kind, m.ID)
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				return fmt.Errorf("%w: batch %s: %v (rollback: %v)", record.ErrPartialApply, meta.table, err, rbErr)
			}
			return fmt.Errorf("batch %s: %w", meta.table, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit batch %s: %v", record.ErrTransport, meta.table, err)
	}
	return nil
}

// buildWhere construye la cláusula WHERE a partir del filtro, validando
// campos contra la lista de columnas del tipo.
func buildWhere(meta kindMeta, filter record.Filter) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}
	conds := make([]string, 0, len(filter))
	args := make([]any, 0, len(filter))
	for _, c := range filter {
		col, err := checkColumn(meta, c.Field)
		if err != nil {
			return "", nil, err
		}
		var op string
		switch c.Op {
		case record.OpEq:
			op = "="
		case record.OpNeq:
			op = "<>"
		case record.OpGte:
			op = ">="
		case record.OpLte:
			op = "<="
		default:
			return "", nil, fmt.Errorf("%w: operador %q", domain.ErrInvalidInput, c.Op)
		}
		args = append(args, c.Value)
		conds = append(conds, fmt.Sprintf("%s %s $%d", col, op, len(args)))
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func buildUpdate(meta kindMeta, id string, patch record.Patch) (string, []any, error) {
	if len(patch) == 0 {
		return "", nil, fmt.Errorf("%w: patch vacío", domain.ErrInvalidInput)
	}
	sets := make([]string, 0, len(patch))
	args := []any{id}
	// Orden determinista de columnas para queries reproducibles.
	for _, col := range meta.columns {
		v, present := patch[col]
		if !present {
			continue
		}
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if len(sets) == 0 {
		return "", nil, fmt.Errorf("%w: patch sin columnas válidas", domain.ErrInvalidInput)
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $1", meta.table, strings.Join(sets, ", "))
	return query, args, nil
}

func checkColumn(meta kindMeta, field string) (string, error) {
	if field == "id" {
		return "id", nil
	}
	for _, col := range meta.columns {
		if col == field {
			return col, nil
		}
	}
	return "", fmt.Errorf("%w: campo %q no existe en %s", domain.ErrInvalidInput, field, meta.table)
}

func scanUser(rows pgx.Rows) (record.Document, error) {
	var (
		id, email, hash, name, role string
		createdAt, updatedAt        time.Time
	)
	if err := rows.Scan(&id, &email, &hash, &name, &role, &createdAt, &updatedAt); err != nil {
		return record.Document{}, err
	}
	return record.Document{ID: id, Data: map[string]any{
		"email": email, "password_hash": hash, "name": name, "role": role,
		"created_at": createdAt, "updated_at": updatedAt,
	}}, nil
}

func scanProducer(rows pgx.Rows) (record.Document, error) {
	var (
		id, name, phone  string
		address          *string
		userID, workerID *string
		createdAt        time.Time
	)
	if err := rows.Scan(&id, &name, &phone, &address, &userID, &workerID, &createdAt); err != nil {
		return record.Document{}, err
	}
	return record.Document{ID: id, Data: map[string]any{
		"name": name, "phone": phone, "address": deref(address),
		"user_id": deref(userID), "assigned_worker_id": deref(workerID),
		"created_at": createdAt,
	}}, nil
}

func scanEvent(rows pgx.Rows) (record.Document, error) {
	var (
		id, producerID, workerID string
		date                     time.Time
		qty, price               decimal.Decimal
		paid                     bool
		paymentDate              *time.Time
	)
	if err := rows.Scan(&id, &producerID, &workerID, &date, &qty, &price, &paid, &paymentDate); err != nil {
		return record.Document{}, err
	}
	data := map[string]any{
		"producer_id": producerID, "worker_id": workerID, "date": date,
		"quantity_lt": qty, "price_per_lt": price, "is_paid": paid,
	}
	if paymentDate != nil {
		data["payment_date"] = *paymentDate
	}
	return record.Document{ID: id, Data: data}, nil
}

func scanSetting(rows pgx.Rows) (record.Document, error) {
	var (
		id        string
		price     decimal.Decimal
		updatedAt time.Time
		updatedBy *string
	)
	if err := rows.Scan(&id, &price, &updatedAt, &updatedBy); err != nil {
		return record.Document{}, err
	}
	return record.Document{ID: id, Data: map[string]any{
		"price_per_lt": price, "updated_at": updatedAt, "updated_by": deref(updatedBy),
	}}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
