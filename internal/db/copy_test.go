package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFromSchema_EmptyRows(t *testing.T) {
	n, err := CopyFromSchema(context.TODO(), nil, "agro", "precipitation", []string{"a"}, [][]any{})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFromSchema_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"agro", "precipitation"}, []string{"a", "b"}).WillReturnResult(5)

	rows := [][]any{{1, "x"}, {2, "y"}, {3, "z"}, {4, "w"}, {5, "v"}}
	n, err := CopyFromSchema(context.Background(), mock, "agro", "precipitation", []string{"a", "b"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFromSchema_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"agro", "precipitation"}, []string{"a"}).WillReturnError(fmt.Errorf("permission denied"))

	rows := [][]any{{1}}
	_, err = CopyFromSchema(context.Background(), mock, "agro", "precipitation", []string{"a"}, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO agro.precipitation")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFromSchema_InTransaction(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectCopyFrom(pgx.Identifier{"agro", "crops"}, []string{"seq", "idcultivo", "nomcultivo"}).WillReturnResult(2)
	mock.ExpectCommit()

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)
	n, err := CopyFromSchema(context.Background(), tx, "agro", "crops", []string{"seq", "idcultivo", "nomcultivo"},
		[][]any{{0, "1", "Maiz"}, {1, "2", "Frijol"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, tx.Commit(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQualifiedName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", `"simple"`},
		{"agro.soils", `"agro"."soils"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, QualifiedName(tt.input))
		})
	}
}

func TestQuoteColumns(t *testing.T) {
	assert.Equal(t, `"cvegeo", "clave", "rangos"`, QuoteColumns([]string{"cvegeo", "clave", "rangos"}))
}
