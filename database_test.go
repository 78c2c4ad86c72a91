package sqlitec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDatabase(t *testing.T) {
	t.Run("OpenCloseMemory", func(t *testing.T) {
		conn, err := Open(Config{})
		assert.NoError(t, err)
		assert.NotNil(t, conn)
		conn.Close()
		conn.Close()
	})

	t.Run("OpenCreatesFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test.sqlite")

		conn, err := Open(Config{Path: path, Mode: ReadWrite, Create: true})
		assert.NoError(t, err)
		assert.NoError(t, conn.Exec("CREATE TABLE t (id INTEGER PRIMARY KEY)"))
		conn.Close()

		_, err = os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("OpenMissingFileWithoutCreateFails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.sqlite")

		_, err := Open(Config{Path: path, Mode: ReadWrite})
		var engineErr *Error
		assert.ErrorAs(t, err, &engineErr)
		assert.Equal(t, KindCantOpen, engineErr.Kind)

		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("ReadOnlyMissingFileDoesNotCreate", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.sqlite")

		_, err := Open(Config{Path: path, Mode: ReadOnly})
		assert.Error(t, err)

		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("ReadOnlyWithCreateIsRejectedLocally", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.sqlite")

		_, err := Open(Config{Path: path, Mode: ReadOnly, Create: true})
		assert.ErrorIs(t, err, ErrOpenOptions)

		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("ReadOnlyMemoryIsRejectedLocally", func(t *testing.T) {
		_, err := Open(Config{Mode: ReadOnly})
		assert.ErrorIs(t, err, ErrOpenOptions)
	})

	t.Run("ReadOnlyReopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ro.sqlite")
		val := uuid.NewString()

		conn, err := Open(Config{Path: path, Mode: ReadWrite, Create: true})
		assert.NoError(t, err)
		assert.NoError(t, conn.Exec("CREATE TABLE t (val TEXT)"))
		assert.NoError(t, conn.Exec("INSERT INTO t (val) VALUES (:val)", Text(val)))
		conn.Close()

		ro, err := Open(Config{Path: path, Mode: ReadOnly})
		assert.NoError(t, err)
		defer ro.Close()

		stmt, err := ro.Prepare("SELECT val FROM t")
		assert.NoError(t, err)
		defer stmt.Finalize()

		row, ok, err := stmt.Step()
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, val, row[0].Text())

		err = ro.Exec("INSERT INTO t (val) VALUES (:val)", Text("nope"))
		var engineErr *Error
		assert.ErrorAs(t, err, &engineErr)
		assert.Equal(t, KindReadOnly, engineErr.Kind)
	})

	t.Run("ExecAndCounters", func(t *testing.T) {
		conn, err := Open(Config{})
		assert.NoError(t, err)
		defer conn.Close()

		assert.NoError(t, conn.Exec("CREATE TABLE t (id INTEGER PRIMARY KEY, val TEXT)"))
		assert.NoError(t, conn.Exec("INSERT INTO t (val) VALUES (:val)", Text("one")))
		assert.Equal(t, int64(1), conn.LastInsertRowID())
		assert.Equal(t, int64(1), conn.RowsAffected())

		assert.NoError(t, conn.Exec("INSERT INTO t (val) VALUES (:val)", Text("two")))
		assert.Equal(t, int64(2), conn.LastInsertRowID())

		assert.NoError(t, conn.Exec("UPDATE t SET val = :val", Text("same")))
		assert.Equal(t, int64(2), conn.RowsAffected())
	})

	t.Run("ExecPrepareErrorPropagates", func(t *testing.T) {
		conn, err := Open(Config{})
		assert.NoError(t, err)
		defer conn.Close()

		err = conn.Exec("NOT VALID SQL")
		var engineErr *Error
		assert.ErrorAs(t, err, &engineErr)
		assert.Equal(t, KindError, engineErr.Kind)
	})

	t.Run("SerializeImportRoundTrip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "src.sqlite")

		src, err := Open(Config{Path: path, Mode: ReadWrite, Create: true})
		assert.NoError(t, err)
		assert.NoError(t, src.Exec("CREATE TABLE t (id INTEGER PRIMARY KEY, val TEXT)"))

		vals := []string{uuid.NewString(), uuid.NewString(), uuid.NewString()}
		for _, v := range vals {
			assert.NoError(t, src.Exec("INSERT INTO t (val) VALUES (:val)", Text(v)))
		}

		image, err := src.Serialize()
		assert.NoError(t, err)
		assert.NotEmpty(t, image)
		src.Close()

		imported, err := Import(image)
		assert.NoError(t, err)
		defer imported.Close()

		stmt, err := imported.Prepare("SELECT val FROM t ORDER BY id")
		assert.NoError(t, err)
		defer stmt.Finalize()

		var got []string
		for {
			row, ok, err := stmt.Step()
			assert.NoError(t, err)
			if !ok {
				break
			}
			got = append(got, row[0].Text())
		}
		assert.Equal(t, vals, got)
	})

	t.Run("ImportedDatabaseIsReadOnly", func(t *testing.T) {
		src, err := Open(Config{})
		assert.NoError(t, err)
		assert.NoError(t, src.Exec("CREATE TABLE t (val TEXT)"))

		image, err := src.Serialize()
		assert.NoError(t, err)
		src.Close()

		imported, err := Import(image)
		assert.NoError(t, err)
		defer imported.Close()

		err = imported.Exec("INSERT INTO t (val) VALUES (:val)", Text("nope"))
		var engineErr *Error
		assert.ErrorAs(t, err, &engineErr)
		assert.Equal(t, KindReadOnly, engineErr.Kind)
	})

	t.Run("ImportGarbageFails", func(t *testing.T) {
		_, err := Import([]byte("this is not a database image"))
		assert.Error(t, err)
	})
}
