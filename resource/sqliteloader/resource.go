package sqliteloader

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/lixenwraith/tickframe/resource"
)

// Resource is a resource.Resource whose Start/Unload persist and remove
// a row in Store. The row's primary key is a UUID generated once by New
// and reused by every Start of this Resource; the key column is UNIQUE,
// so a Store holds at most one row per resource.Key at a time.
type Resource struct {
	store   *Store
	key     resource.Key
	payload []byte

	id    string
	ready bool
	err   error
}

// New creates a Resource bound to key, to be written into store with
// payload on Start.
func New(store *Store, key resource.Key, payload []byte) *Resource {
	return &Resource{store: store, key: key, payload: payload, id: uuid.NewString()}
}

// Start writes the resource's row. Per resource.Resource's contract,
// Start must not block waiting on completion — here the SQLite write is
// already synchronous, so Start completes the work up front and Tick
// only reports the outcome already known.
func (r *Resource) Start() {
	_, err := r.store.db.Exec(
		`INSERT INTO resources (id, key, payload, loaded_at) VALUES (?, ?, ?, ?)`,
		r.id, string(r.key), r.payload, time.Now().UnixNano(),
	)
	if err != nil {
		r.err = errors.Wrapf(err, "sqliteloader: insert resource %q", r.key)
		return
	}
	r.ready = true
}

// Unload removes the resource's row.
func (r *Resource) Unload() {
	_, err := r.store.db.Exec(`DELETE FROM resources WHERE id = ?`, r.id)
	if err != nil {
		r.err = errors.Wrapf(err, "sqliteloader: delete resource %q", r.key)
	}
}

// Tick reports the state Start or Unload already settled synchronously.
func (r *Resource) Tick(catalog *resource.Catalog) resource.State {
	if r.err != nil {
		return resource.Failed
	}
	if r.ready {
		return resource.Loaded
	}
	return resource.Loading
}

// ErrNotFound is returned by Payload when the resource's row is absent,
// typically because Unload already ran.
var ErrNotFound = errors.New("sqliteloader: resource row not found")

// Payload reads the row's payload back, a read path a consumer uses
// once catalog.State(key) reports resource.Loaded.
func (r *Resource) Payload() ([]byte, error) {
	var payload []byte
	err := r.store.db.QueryRow(`SELECT payload FROM resources WHERE id = ?`, r.id).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.Wrapf(ErrNotFound, "sqliteloader: resource %q", r.key)
		}
		return nil, errors.Wrapf(err, "sqliteloader: read resource %q", r.key)
	}
	return payload, nil
}
