// Package appendstore persists normalized products as a durable,
// append-only newline-delimited JSON log, one file per supplier.
//
// Writers open the file per call with O_APPEND so interleaved sync runs
// for different suppliers never contend. Concurrent writers for the
// same supplier are not coordinated; sync runs are expected to be
// serialized per supplier by the operator.
package appendstore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/printshop/catalog/internal/domain/catalog"
)

const (
	fileName = "products.jsonl"
	dirPerm  = 0o755
	filePerm = 0o644

	// Generous line limit so products with large variant lists still
	// round-trip through ReadFirst.
	maxLineBytes = 4 << 20
)

// Store writes one JSON document per line under <dir>/<supplier>/products.jsonl.
type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the log file location for a supplier.
func (s *Store) Path(supplier catalog.SupplierCode) string {
	return filepath.Join(s.dir, string(supplier), fileName)
}

// Append writes a single product to its supplier's log.
func (s *Store) Append(product *catalog.UnifiedProduct) error {
	return s.AppendBatch(product.Supplier, []*catalog.UnifiedProduct{product})
}

// AppendBatch writes products to the supplier's log in order. The file
// is opened in append mode per call and synced before close, so a
// crash mid-run loses at most the batch being written.
func (s *Store) AppendBatch(supplier catalog.SupplierCode, products []*catalog.UnifiedProduct) error {
	if len(products) == 0 {
		return nil
	}
	if !supplier.IsValid() {
		return catalog.ErrUnknownSupplier
	}

	path := s.Path(supplier)
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return &catalog.PersistenceError{Target: "append-store", Err: err}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return &catalog.PersistenceError{Target: "append-store", Err: err}
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, product := range products {
		if err := enc.Encode(product); err != nil {
			return &catalog.PersistenceError{Target: "append-store", Err: err}
		}
	}
	if err := w.Flush(); err != nil {
		return &catalog.PersistenceError{Target: "append-store", Err: err}
	}
	if err := f.Sync(); err != nil {
		return &catalog.PersistenceError{Target: "append-store", Err: err}
	}
	return nil
}

// ReadFirst returns up to n products from the head of a supplier's log.
// It is an inspection helper for operators and tests, not a query path.
// Lines that fail to decode are reported with their line number.
func (s *Store) ReadFirst(supplier catalog.SupplierCode, n int) ([]*catalog.UnifiedProduct, error) {
	if n <= 0 {
		return nil, nil
	}

	f, err := os.Open(s.Path(supplier))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &catalog.PersistenceError{Target: "append-store", Err: err}
	}
	defer f.Close()

	products := make([]*catalog.UnifiedProduct, 0, n)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	line := 0
	for scanner.Scan() && len(products) < n {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var product catalog.UnifiedProduct
		if err := json.Unmarshal(raw, &product); err != nil {
			return products, &catalog.PersistenceError{
				Target: "append-store",
				Err:    fmt.Errorf("line %d: %w", line, err),
			}
		}
		products = append(products, &product)
	}
	if err := scanner.Err(); err != nil {
		return products, &catalog.PersistenceError{Target: "append-store", Err: err}
	}
	return products, nil
}

// Count returns the number of records in a supplier's log.
func (s *Store) Count(supplier catalog.SupplierCode) (int, error) {
	f, err := os.Open(s.Path(supplier))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, &catalog.PersistenceError{Target: "append-store", Err: err}
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if len(scanner.Bytes()) > 0 {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return count, &catalog.PersistenceError{Target: "append-store", Err: err}
	}
	return count, nil
}
