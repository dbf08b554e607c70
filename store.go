/*
 * Copyright (c) 2020 Siemens AG
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy of
 * this software and associated documentation files (the "Software"), to deal in
 * the Software without restriction, including without limitation the rights to
 * use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
 * the Software, and to permit persons to whom the Software is furnished to do so,
 * subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
 * FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
 * COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
 * IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
 * CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 *
 * Author(s): Jonas Plum
 */

package cloudforensics

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"crawshaw.io/sqlite"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/forensicanalysis/cloudforensics/goflatten"
)

const storeVersion = 1
const cloudforensicsApplicationID = 1668246380
const discriminator = "type"

// fieldPattern matches flattened field names that can be used in a json path
// and as a view column.
var fieldPattern = regexp.MustCompile(`^[A-Za-z0-9_]+(\.[A-Za-z0-9_]+)*$`)

// The Store holds the evidence of one acquisition. Elements are stored as
// json in an fts5 table that supports selection by field values and full
// text search. On close a view per element type is created that
// exposes all fields as columns.
type Store struct {
	cursor  *sqlite.Conn
	types   *typeMap
	schemas *schemaMap
	logger  *slog.Logger
}

var ErrStoreExists = fmt.Errorf("store already exists")
var ErrStoreNotExists = fmt.Errorf("store does not exist")
var ErrElementNotExists = fmt.Errorf("element does not exist")

// New creates a new store.
func New(url string) (*Store, error) {
	return open(url, true)
}

// Open opens an existing store.
func Open(url string) (*Store, error) {
	return open(url, false)
}

func pragma(conn *sqlite.Conn, name string) (int64, error) {
	stmt, err := conn.Prepare("PRAGMA " + name)
	if err != nil {
		return 0, err
	}
	_, err = stmt.Step()
	if err != nil {
		return 0, err
	}
	i := stmt.GetInt64(name)
	return i, stmt.Finalize()
}

func setPragma(conn *sqlite.Conn, name string, i int64) error {
	stmt, err := conn.Prepare("PRAGMA " + name + " = " + fmt.Sprint(i))
	if err != nil {
		return err
	}
	_, err = stmt.Step()
	if err != nil {
		return err
	}
	return stmt.Finalize()
}

func open(url string, create bool) (*Store, error) { // nolint:gocyclo,funlen
	store := &Store{logger: slog.Default()}

	if url != ":memory:" {
		exists := true
		_, err := os.Stat(url)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
			exists = false
		}

		if create && exists {
			return nil, ErrStoreExists
		}
		if !create && !exists {
			return nil, ErrStoreNotExists
		}

		if create {
			err = os.MkdirAll(filepath.Dir(url), 0750)
			if err != nil {
				return nil, err
			}
			store.logger.Info("creating store", "path", url)
		}
	}

	var err error
	store.cursor, err = sqlite.OpenConn(url, 0)
	if err != nil {
		return nil, err
	}

	if create {
		err = setPragma(store.cursor, "application_id", cloudforensicsApplicationID)
		if err != nil {
			return nil, err
		}

		err = setPragma(store.cursor, "user_version", storeVersion)
		if err != nil {
			return nil, err
		}

		err = store.exec("CREATE VIRTUAL TABLE `elements` " +
			"USING fts5(id UNINDEXED, json, insert_time UNINDEXED, tokenize=\"unicode61 tokenchars '/.-@'\")")
		if err != nil {
			return nil, err
		}
	} else {
		applicationID, err := pragma(store.cursor, "application_id")
		if err != nil {
			return nil, err
		}
		if applicationID != cloudforensicsApplicationID {
			msg := "wrong file format (application_id is %d, requires %d)"
			return nil, fmt.Errorf(msg, applicationID, cloudforensicsApplicationID)
		}

		version, err := pragma(store.cursor, "user_version")
		if err != nil {
			return nil, err
		}
		if version != storeVersion {
			msg := "wrong file format (user_version is %d, requires %d)"
			return nil, fmt.Errorf(msg, version, storeVersion)
		}
	}

	store.types = newTypeMap()
	err = store.setupTypes()
	if err != nil {
		return nil, err
	}

	store.schemas, err = loadSchemas()
	if err != nil {
		return nil, err
	}

	return store, nil
}

// SetLogger replaces the logger of the store.
func (store *Store) SetLogger(logger *slog.Logger) {
	store.logger = logger
}

/* ################################
#   API
################################ */

// Insert adds a single element. Elements without id get one of the form
// <type>--<uuid>. The inserted id is returned.
func (store *Store) Insert(element JSONElement) (string, error) {
	row, err := store.insert(element)
	if err != nil {
		return "", err
	}
	store.types.addAll(row.elementType, row.fields)
	return row.id, nil
}

// insertedRow is an element written to the elements table whose fields are
// not yet recorded in the type map.
type insertedRow struct {
	id          string
	elementType string
	fields      []string
}

func (store *Store) insert(element JSONElement) (*insertedRow, error) {
	nestedElement := map[string]interface{}{}
	err := decodeJSON(element, &nestedElement)
	if err != nil {
		return nil, errors.Wrap(err, "could not unmarshal element")
	}

	elementType, ok := nestedElement[discriminator].(string)
	if !ok || elementType == "" {
		return nil, errors.New("element requires type")
	}
	id, ok := nestedElement["id"].(string)
	if !ok {
		id = elementType + "--" + uuid.New().String()
		nestedElement["id"] = id

		element, err = json.Marshal(nestedElement)
		if err != nil {
			return nil, err
		}
	}

	valErr, err := store.validateElementSchema(element)
	if err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	if len(valErr) > 0 {
		return nil, fmt.Errorf("element could not be validated [%s]", strings.Join(valErr, ","))
	}

	fields, err := goflatten.Fields(nestedElement)
	if err != nil {
		return nil, errors.Wrap(err, "could not flatten element")
	}

	query := "INSERT INTO `elements` (id, json, insert_time) VALUES ($id, $json, $time)"
	stmt, err := store.cursor.Prepare(query)
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("could not prepare statement %s", query))
	}
	stmt.SetText("$id", id)
	stmt.SetText("$json", string(element))
	stmt.SetText("$time", time.Now().UTC().Format("2006-01-02T15:04:05.000Z"))
	_, err = stmt.Step()
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprint("could not exec statement ", query))
	}

	return &insertedRow{id: id, elementType: elementType, fields: fields}, stmt.Finalize()
}

// InsertBatch adds a set of elements in a single transaction. The fields of
// the elements are only recorded for the views once the transaction is
// released.
func (store *Store) InsertBatch(elements []JSONElement) (ids []string, err error) {
	if len(elements) == 0 {
		return nil, nil
	}

	if err := store.exec("SAVEPOINT insert_batch"); err != nil {
		return nil, err
	}
	var rows []*insertedRow
	defer func() {
		if err != nil {
			_ = store.exec("ROLLBACK TO insert_batch")
		}
		releaseErr := store.exec("RELEASE insert_batch")
		if err == nil {
			err = releaseErr
		}
		if err != nil {
			ids = nil
			return
		}
		for _, row := range rows {
			store.types.addAll(row.elementType, row.fields)
		}
	}()

	for _, element := range elements {
		row, err := store.insert(element)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
		ids = append(ids, row.id)
	}
	return ids, nil
}

// InsertStruct converts a Go struct to an element of elementType and inserts
// it. Field names are converted to snake case.
func (store *Store) InsertStruct(elementType string, element interface{}) (string, error) {
	ids, err := store.InsertStructBatch(elementType, []interface{}{element})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// InsertStructBatch adds a list of structs of the same element type.
func (store *Store) InsertStructBatch(elementType string, elements []interface{}) ([]string, error) {
	var ms []JSONElement
	for _, element := range elements {
		b, err := structElement(elementType, element)
		if err != nil {
			return nil, err
		}
		ms = append(ms, b)
	}

	return store.InsertBatch(ms)
}

// Get retrieves a single element.
func (store *Store) Get(id string) (element JSONElement, err error) {
	stmt, err := store.cursor.Prepare("SELECT json FROM `elements` WHERE id = $id")
	if err != nil {
		return nil, err
	}
	stmt.SetText("$id", id)

	elements, err := store.rowsToElements(stmt)
	if err != nil {
		return nil, err
	}
	if len(elements) > 0 {
		return elements[0], nil
	}
	return nil, errors.Wrap(ErrElementNotExists, id)
}

// Select retrieves all elements of elementType that match any of the
// conditions. A condition matches if all of its fields match using the sql
// LIKE operator. An empty elementType selects elements of all types.
func (store *Store) Select(elementType string, conditions []map[string]string) (elements []JSONElement, err error) {
	params := map[string]string{}
	var wheres []string
	if elementType != "" {
		params["$type"] = elementType
		wheres = append(wheres, fmt.Sprintf("json_extract(json, '$.%s') = $type", discriminator))
	}

	var ors []string
	for _, condition := range conditions {
		var keys []string
		for key := range condition {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		var ands []string
		for _, key := range keys {
			if !fieldPattern.MatchString(key) {
				return nil, fmt.Errorf("invalid field name %q", key)
			}
			param := fmt.Sprintf("$p%d", len(params))
			params[param] = condition[key]
			ands = append(ands, fmt.Sprintf("json_extract(json, '$.%s') LIKE %s", key, param))
		}
		if len(ands) > 0 {
			ors = append(ors, "("+strings.Join(ands, " AND ")+")")
		}
	}
	if len(ors) > 0 {
		wheres = append(wheres, "("+strings.Join(ors, " OR ")+")")
	}

	query := "SELECT json FROM `elements`"
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ") // #nosec
	}
	query += " ORDER BY rowid"

	stmt, err := store.cursor.Prepare(query)
	if err != nil {
		return nil, err
	}
	for param, value := range params {
		stmt.SetText(param, value)
	}

	return store.rowsToElements(stmt)
}

// Search returns all elements that match the full text query q.
func (store *Store) Search(q string) (elements []JSONElement, err error) {
	stmt, err := store.cursor.Prepare("SELECT json FROM `elements` WHERE elements = $query ORDER BY rank")
	if err != nil {
		return nil, err
	}
	stmt.SetText("$query", q)
	return store.rowsToElements(stmt)
}

// All returns every element.
func (store *Store) All() (elements []JSONElement, err error) {
	return store.Select("", nil)
}

// Close creates the type views and closes the database.
func (store *Store) Close() error {
	if store.types.changed {
		if err := store.createViews(); err != nil {
			store.logger.Warn("could not create views", "error", err)
		}
	}

	return store.cursor.Close()
}

func (store *Store) createViews() error {
	for typeName, fields := range store.types.all() {
		err := store.exec(fmt.Sprintf("DROP VIEW IF EXISTS \"%s\"", typeName))
		if err != nil {
			return err
		}
		var columns []string
		for field := range fields {
			if !fieldPattern.MatchString(field) {
				continue
			}
			columns = append(columns, fmt.Sprintf("json_extract(json, '$.%s') as \"%s\"", field, field))
		}
		sort.Strings(columns)
		err = store.exec(
			fmt.Sprintf("CREATE VIEW \"%s\" AS SELECT %s FROM elements WHERE json_extract(json, '$.%s') = '%s'",
				typeName, strings.Join(columns, ", "), discriminator, typeName),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

/* ################################
#   Validate
################################ */

// Validate checks all elements for schema violations and inconsistent ids.
func (store *Store) Validate() (flaws []string, err error) {
	flaws = []string{}

	elements, err := store.All()
	if err != nil {
		return nil, err
	}
	for _, element := range elements {
		elementType := gjson.GetBytes(element, discriminator).String()
		id := gjson.GetBytes(element, "id").String()
		if elementType != "" && !strings.HasPrefix(id, elementType+"--") {
			flaws = append(flaws, fmt.Sprintf("id %s does not match type %s", id, elementType))
		}

		validationErrors, err := store.validateElementSchema(element)
		if err != nil {
			return nil, err
		}
		flaws = append(flaws, validationErrors...)
	}
	return flaws, nil
}

/* ################################
#   Intern
################################ */

func (store *Store) rowsToElements(stmt *sqlite.Stmt) (elements []JSONElement, err error) {
	elements = []JSONElement{}
	for {
		if hasRow, err := stmt.Step(); err != nil {
			return nil, err
		} else if !hasRow {
			break
		}
		elements = append(elements, JSONElement(stmt.GetText("json")))
	}
	return elements, stmt.Finalize()
}

func isElementTable(name string) bool {
	if strings.HasPrefix(name, "sqlite") || strings.HasPrefix(name, "_") {
		return false
	}
	if name == "elements" {
		return false
	}

	for _, suffix := range []string{"_data", "_idx", "_content", "_docsize", "_config"} {
		if strings.HasSuffix(name, suffix) {
			return false
		}
	}
	return true
}

// setupTypes reads the fields of existing views.
func (store *Store) setupTypes() error {
	stmt, err := store.cursor.Prepare("SELECT name FROM sqlite_master WHERE type = 'view'")
	if err != nil {
		return err
	}

	for {
		if hasRow, err := stmt.Step(); err != nil {
			return err
		} else if !hasRow {
			break
		}

		name := stmt.GetText("name")

		if !isElementTable(name) {
			continue
		}

		pragmaStmt, err := store.cursor.Prepare(fmt.Sprintf("PRAGMA table_info (\"%s\")", name))
		if err != nil {
			return err
		}

		for {
			if pragmaHasRow, err := pragmaStmt.Step(); err != nil {
				return err
			} else if !pragmaHasRow {
				break
			}

			columnName := pragmaStmt.GetText("name")
			store.types.add(name, columnName)
		}
		err = pragmaStmt.Finalize()
		if err != nil {
			return err
		}
	}
	store.types.changed = false

	return stmt.Finalize()
}

func (store *Store) exec(query string) error {
	stmt, err := store.cursor.Prepare(query)
	if err != nil {
		return err
	}

	_, err = stmt.Step()
	if err != nil {
		return err
	}

	return stmt.Finalize()
}
