// Package surtype provides high-level record mapping and CRUD operations.
package surtype

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/CaliLuke/go-surreal/driver"
	"github.com/CaliLuke/go-surreal/fieldenc"
	"github.com/CaliLuke/go-surreal/surql"
)

// Executor runs one statement and returns its per-statement results.
type Executor interface {
	Query(ctx context.Context, statement string, vars map[string]any) ([]driver.QueryResult, error)
}

// Client is the connection surface a Manager needs. *driver.Client
// satisfies it.
type Client interface {
	Executor
	Live(ctx context.Context, table string, diff bool) (*driver.Subscription, error)
}

// Manager provides high-level, generic CRUD (Create, Read, Update, Delete)
// operations for a registered record type T.
type Manager[T any] struct {
	c        Client
	info     *ModelInfo
	pipeline *fieldenc.Pipeline
}

// NewManager creates a new Manager for the record type T.
// T must be a struct that has been registered via Register[T]().
// The keyring supplies keys for reversible crypt fields; it may be nil
// when T declares none.
func NewManager[T any](c Client, ring fieldenc.Keyring) (*Manager[T], error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	info, ok := LookupType(t)
	if !ok {
		panic(fmt.Sprintf("surtype: type %s is not registered; call Register[%s]() first", t.Name(), t.Name()))
	}

	m := &Manager[T]{c: c, info: info}
	if len(info.Descriptors) > 0 {
		p, err := fieldenc.NewPipeline(ring, info.Descriptors...)
		if err != nil {
			return nil, fmt.Errorf("manager %s: %w", info.TableName, err)
		}
		m.pipeline = p
	}
	return m, nil
}

// Table returns the record table the manager writes to.
func (m *Manager[T]) Table() string {
	return m.info.TableName
}

// Create inserts the instance as a new record. Crypt fields are sealed
// for the statement and the reversible ones restored afterward; one-way
// fields keep their hashes on the instance, matching what was stored.
// On success the instance's record id is populated.
func (m *Manager[T]) Create(ctx context.Context, instance *T) error {
	if m.info.Kind == KindEdge {
		return fmt.Errorf("create %s: edge records are written with Relate", m.info.TableName)
	}
	if instance == nil {
		return fmt.Errorf("create %s: instance must not be nil", m.info.TableName)
	}
	if err := checkCtx(ctx, "create", m.info.TableName); err != nil {
		return err
	}

	v := reflect.ValueOf(instance).Elem()
	bag := bagFromValue(m.info, v)

	target := m.info.TableName
	if base := baseRecordOf(v); base != nil && !base.GetID().IsZero() {
		target = base.GetID().String()
	} else if key, ok := m.keyThing(v); ok {
		target = key.String()
	}

	rows, err := m.execSealed(ctx, bag, func(body map[string]any) (string, error) {
		return surql.Create(target).Content(body).Return(surql.ReturnAfter).Build()
	})
	if err != nil {
		return fmt.Errorf("create %s: %w", m.info.TableName, err)
	}

	m.writeBackHashes(v, bag)
	m.refreshIdentity(v, rows)
	return nil
}

// Get retrieves records matching the given field filters. Filters
// combine with AND; a nil or empty filter map selects the whole table.
// Reversible crypt fields come back decrypted.
func (m *Manager[T]) Get(ctx context.Context, filters map[string]any) ([]*T, error) {
	b := surql.Select(m.info.TableName)
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WhereCond(surql.Eq(k, filters[k]))
	}

	stmt, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", m.info.TableName, err)
	}
	rows, err := m.exec(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", m.info.TableName, err)
	}
	return m.hydrateRows(rows)
}

// All retrieves every record of the model's table.
func (m *Manager[T]) All(ctx context.Context) ([]*T, error) {
	return m.Get(ctx, nil)
}

// GetByID retrieves a single record by id. The id may be a Thing, a
// "table:id" string, or a bare record key. It returns nil with no error
// when the record does not exist.
func (m *Manager[T]) GetByID(ctx context.Context, id any) (*T, error) {
	stmt, err := surql.Select(m.thingFor(id)).Build()
	if err != nil {
		return nil, fmt.Errorf("get_by_id %s: %w", m.info.TableName, err)
	}
	rows, err := m.exec(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("get_by_id %s: %w", m.info.TableName, err)
	}
	instances, err := m.hydrateRows(rows)
	if err != nil {
		return nil, err
	}
	if len(instances) == 0 {
		return nil, nil
	}
	return instances[0], nil
}

// Update replaces the stored record with the instance's current state.
// The instance must have its id populated, typically from a prior
// Create or read.
func (m *Manager[T]) Update(ctx context.Context, instance *T) error {
	if instance == nil {
		return fmt.Errorf("update %s: instance must not be nil", m.info.TableName)
	}
	if err := checkCtx(ctx, "update", m.info.TableName); err != nil {
		return err
	}
	v := reflect.ValueOf(instance).Elem()
	base := baseRecordOf(v)
	if base == nil || base.GetID().IsZero() {
		return fmt.Errorf("update %s: instance has no record id", m.info.TableName)
	}

	bag := bagFromValue(m.info, v)
	_, err := m.execSealed(ctx, bag, func(body map[string]any) (string, error) {
		return surql.Update(base.GetID()).Content(body).Return(surql.ReturnNone).Build()
	})
	if err != nil {
		return fmt.Errorf("update %s: %w", m.info.TableName, err)
	}
	m.writeBackHashes(v, bag)
	return nil
}

// DeleteOption configures delete behavior.
type DeleteOption func(*deleteConfig)

type deleteConfig struct {
	strict bool
}

// WithStrict enables strict mode: delete fails when the record does not
// exist.
func WithStrict() DeleteOption {
	return func(c *deleteConfig) { c.strict = true }
}

// Delete removes the instance's record. The instance must have its id
// populated.
func (m *Manager[T]) Delete(ctx context.Context, instance *T, opts ...DeleteOption) error {
	if instance == nil {
		return fmt.Errorf("delete %s: instance must not be nil", m.info.TableName)
	}
	if err := checkCtx(ctx, "delete", m.info.TableName); err != nil {
		return err
	}
	v := reflect.ValueOf(instance).Elem()
	base := baseRecordOf(v)
	if base == nil || base.GetID().IsZero() {
		return fmt.Errorf("delete %s: instance has no record id", m.info.TableName)
	}

	cfg := deleteConfig{}
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.strict {
		stmt, err := surql.Select(base.GetID()).Fields("id").Build()
		if err != nil {
			return fmt.Errorf("delete %s: strict check: %w", m.info.TableName, err)
		}
		rows, err := m.exec(ctx, stmt)
		if err != nil {
			return fmt.Errorf("delete %s: strict check: %w", m.info.TableName, err)
		}
		if len(rows) == 0 {
			return &NotFoundError{TypeName: m.info.GoType.Name()}
		}
	}

	stmt, err := surql.Delete(base.GetID()).Build()
	if err != nil {
		return fmt.Errorf("delete %s: %w", m.info.TableName, err)
	}
	if _, err := m.exec(ctx, stmt); err != nil {
		return fmt.Errorf("delete %s: %w", m.info.TableName, err)
	}
	return nil
}

// DeleteWhere removes every record matching the conditions. It refuses
// an empty condition list; wiping the whole table takes an explicit
// Raw("true") condition.
func (m *Manager[T]) DeleteWhere(ctx context.Context, conds ...surql.Cond) error {
	if len(conds) == 0 {
		return fmt.Errorf("delete_where %s: at least one condition required", m.info.TableName)
	}
	stmt, err := surql.Delete(m.info.TableName).WhereCond(conds...).Build()
	if err != nil {
		return fmt.Errorf("delete_where %s: %w", m.info.TableName, err)
	}
	if _, err := m.exec(ctx, stmt); err != nil {
		return fmt.Errorf("delete_where %s: %w", m.info.TableName, err)
	}
	return nil
}

// Relate writes the edge instance as a graph relation between its two
// endpoints. The manager's model must be an edge type and both
// endpoints must carry record ids. Crypt fields on the edge body are
// handled the same way Create handles them.
func (m *Manager[T]) Relate(ctx context.Context, edge *T) error {
	if m.info.Kind != KindEdge {
		return fmt.Errorf("relate %s: model is not an edge type", m.info.TableName)
	}
	if edge == nil {
		return fmt.Errorf("relate %s: edge must not be nil", m.info.TableName)
	}
	if err := checkCtx(ctx, "relate", m.info.TableName); err != nil {
		return err
	}
	v := reflect.ValueOf(edge).Elem()
	be := baseEdgeOf(v)
	if be == nil {
		return fmt.Errorf("relate %s: model does not embed BaseEdge", m.info.TableName)
	}
	if be.GetIn().IsZero() || be.GetOut().IsZero() {
		return fmt.Errorf("relate %s: both endpoints need record ids", m.info.TableName)
	}

	bag := bagFromValue(m.info, v)
	stmt, err := surql.Relate().
		From(be.GetIn()).
		To(be.GetOut()).
		Via(m.info.TableName).
		WithEntity(bag, m.pipeline != nil).
		Encrypt(m.pipeline).
		Build()
	if err != nil {
		return fmt.Errorf("relate %s: %w", m.info.TableName, err)
	}
	rows, err := m.exec(ctx, stmt)
	if err != nil {
		return fmt.Errorf("relate %s: %w", m.info.TableName, err)
	}

	m.writeBackHashes(v, bag)
	m.refreshIdentity(v, rows)
	return nil
}

// Verify checks a candidate value against the stored hash of a one-way
// crypt field. A mismatch is (false, nil), not an error.
func (m *Manager[T]) Verify(field, candidate, stored string) (bool, error) {
	if m.pipeline == nil {
		return false, fmt.Errorf("verify %s: model has no crypt fields", m.info.TableName)
	}
	return m.pipeline.Verify(field, candidate, stored)
}

// Live opens a live subscription on the model's table. With diff set,
// notifications carry patches instead of full records.
func (m *Manager[T]) Live(ctx context.Context, diff bool) (*driver.Subscription, error) {
	return m.c.Live(ctx, m.info.TableName, diff)
}

// Count returns the number of records matching the conditions, or the
// table size when none are given.
func (m *Manager[T]) Count(ctx context.Context, conds ...surql.Cond) (int64, error) {
	var w surql.Where
	for _, c := range conds {
		if c != nil {
			w.Add(c.Expr())
		}
	}
	stmt := "SELECT count() FROM " + m.info.TableName
	if s := w.Render(); s != "" {
		stmt += " " + s
	}
	stmt += " GROUP ALL"

	rows, err := m.exec(ctx, stmt)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", m.info.TableName, err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	switch n := rows[0]["count"].(type) {
	case float64:
		return int64(n), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	}
	return 0, nil
}

// --- Statement execution helpers ---

// checkCtx returns an error when the context is already cancelled.
func checkCtx(ctx context.Context, op, table string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s %s: context cancelled: %w", op, table, err)
	}
	return nil
}

// exec runs one statement and returns its rows.
func (m *Manager[T]) exec(ctx context.Context, statement string) ([]map[string]any, error) {
	return execStatement(ctx, m.c, statement)
}

// execStatement runs one statement through an Executor and returns its
// rows. A statement-level failure comes back as a StatementError.
func execStatement(ctx context.Context, c Executor, statement string) ([]map[string]any, error) {
	results, err := c.Query(ctx, statement, nil)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	if err := results[0].Err(); err != nil {
		return nil, &StatementError{Statement: statement, Cause: err}
	}
	return recordsOf(results[0].Result), nil
}

// execSealed builds and runs a statement against the sealed view of the
// bag. Reversible fields are restored in the bag afterward; one-way
// hashes persist.
func (m *Manager[T]) execSealed(ctx context.Context, bag map[string]any, build func(map[string]any) (string, error)) ([]map[string]any, error) {
	if m.pipeline == nil {
		stmt, err := build(bag)
		if err != nil {
			return nil, err
		}
		return m.exec(ctx, stmt)
	}
	var rows []map[string]any
	err := m.pipeline.RoundTrip(bag, func(sealed map[string]any) error {
		stmt, err := build(sealed)
		if err != nil {
			return err
		}
		rows, err = m.exec(ctx, stmt)
		return err
	})
	return rows, err
}

// recordsOf normalizes a statement result to a list of record maps. The
// server returns an array for table targets and a bare object for
// single-record targets.
func recordsOf(result any) []map[string]any {
	switch v := result.(type) {
	case []any:
		rows := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if row, ok := item.(map[string]any); ok {
				rows = append(rows, row)
			}
		}
		return rows
	case map[string]any:
		return []map[string]any{v}
	default:
		return nil
	}
}

// --- Internal helpers ---

func (m *Manager[T]) hydrateRows(rows []map[string]any) ([]*T, error) {
	if m.pipeline != nil {
		for _, row := range rows {
			if err := m.pipeline.DecryptFields(row); err != nil {
				return nil, fmt.Errorf("hydrate %s: %w", m.info.TableName, err)
			}
		}
	}
	instances, err := HydrateAll[T](rows)
	if err != nil {
		return nil, fmt.Errorf("hydrate %s: %w", m.info.TableName, err)
	}
	return instances, nil
}

// keyThing derives the record id from the model's key field, when one
// is declared and set.
func (m *Manager[T]) keyThing(v reflect.Value) (surql.Thing, bool) {
	fi, ok := m.info.KeyField()
	if !ok {
		return surql.Thing{}, false
	}
	field := v.Field(fi.FieldIndex)
	if fi.IsPointer {
		if field.IsNil() {
			return surql.Thing{}, false
		}
		field = field.Elem()
	}
	if field.IsZero() {
		return surql.Thing{}, false
	}
	return surql.NewThing(m.info.TableName, fmt.Sprintf("%v", field.Interface())), true
}

// thingFor normalizes the id forms GetByID accepts. A string is read as
// table:id only when its table half names this model's table; anything
// else is treated as a bare record key.
func (m *Manager[T]) thingFor(id any) surql.Thing {
	switch v := id.(type) {
	case surql.Thing:
		return v
	case string:
		if th, err := surql.ParseThing(v); err == nil && th.Table == m.info.TableName {
			return th
		}
		return surql.NewThing(m.info.TableName, v)
	default:
		return surql.NewThing(m.info.TableName, fmt.Sprintf("%v", v))
	}
}

// writeBackHashes copies one-way hashed values from the bag back onto
// the instance, so the caller's copy matches what was stored.
func (m *Manager[T]) writeBackHashes(v reflect.Value, bag map[string]any) {
	if m.pipeline == nil {
		return
	}
	for _, d := range m.pipeline.Fields() {
		if d.Algo.Reversible() {
			continue
		}
		if hashed, ok := bag[d.Field]; ok {
			setDBField(m.info, v, d.Field, hashed)
		}
	}
}

// refreshIdentity populates the instance's record id, and the edge
// endpoints for edge models, from the stored record the server
// returned.
func (m *Manager[T]) refreshIdentity(v reflect.Value, rows []map[string]any) {
	if len(rows) == 0 {
		return
	}
	row := rows[0]
	if raw, ok := row["id"]; ok {
		if id, ok := thingOf(raw); ok {
			if base := baseRecordOf(v); base != nil {
				base.SetID(id)
			}
		}
	}
	if m.info.Kind != KindEdge {
		return
	}
	edge := baseEdgeOf(v)
	if edge == nil {
		return
	}
	if raw, ok := row["in"]; ok {
		if id, ok := thingOf(raw); ok {
			edge.SetIn(id)
		}
	}
	if raw, ok := row["out"]; ok {
		if id, ok := thingOf(raw); ok {
			edge.SetOut(id)
		}
	}
}
