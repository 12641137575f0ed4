package internal

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

const defaultInspectLimit = 200

// InspectRow is one BadgerDB entry as listed by the debug endpoint.
type InspectRow struct {
	Key    string `json:"key"`
	Kind   string `json:"kind"`
	Size   int    `json:"size"`
	Detail string `json:"detail,omitempty"`
}

type RowMapper func(key string, val []byte) InspectRow
type StatsProvider func() any

type PageData struct {
	Prefix string       `json:"prefix"`
	Items  []InspectRow `json:"items"`
	Stats  any          `json:"stats,omitempty"`
}

// DebugHandler lists raw store entries by key prefix: GET /inspect?prefix=evt:&limit=50.
// It must only be served on a private address.
func DebugHandler(db *badger.DB, mapper RowMapper, statsProvider StatsProvider) http.Handler {
	if mapper == nil {
		mapper = DefaultMapper
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /inspect", func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "evt:"
		}
		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if err != nil || limit <= 0 {
			limit = defaultInspectLimit
		}

		data := PageData{Prefix: prefix, Items: []InspectRow{}}
		if statsProvider != nil {
			data.Stats = statsProvider()
		}
		err = db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)) && len(data.Items) < limit; it.Next() {
				item := it.Item()
				if err := item.Value(func(val []byte) error {
					data.Items = append(data.Items, mapper(string(item.KeyCopy(nil)), val))
					return nil
				}); err != nil {
					return err
				}
			}
			return nil
		})
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		_ = json.NewEncoder(w).Encode(data)
	})
	return mux
}

// DefaultMapper names the entry by its key namespace and, for logged events, shows the event type.
func DefaultMapper(key string, val []byte) InspectRow {
	kind, _, _ := strings.Cut(key, ":")
	row := InspectRow{Key: key, Kind: kind, Size: len(val)}
	if kind == "evt" {
		var evt struct {
			EventType string `json:"event_type"`
			EventID   string `json:"event_id"`
		}
		if json.Unmarshal(val, &evt) == nil {
			row.Detail = evt.EventType + " " + evt.EventID
		}
	}
	return row
}
