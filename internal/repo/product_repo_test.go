package repo

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MorseWayne/content_shop/internal/domain"
)

var productRowColumns = []string{
	"id", "name", "description", "price", "quantity", "available",
	"image_url", "owner_id", "created_at", "updated_at",
}

func TestProductRepo_DeleteReferenced(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM products").
		WithArgs(3).
		WillReturnError(&mysql.MySQLError{
			Number:  1451,
			Message: "Cannot delete or update a parent row: a foreign key constraint fails (`orders`, CONSTRAINT `fk_orders_product`)",
		})

	err = NewProductRepository(db).Delete(context.Background(), 3)
	assert.ErrorIs(t, err, ErrRowReferenced)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMapConstraint(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want error
	}{
		{"duplicate other key", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'x' for key 'orders.uk_orders_number'"}, ErrDuplicateKey},
		{"referenced", &mysql.MySQLError{Number: 1451}, ErrRowReferenced},
		{"missing parent", &mysql.MySQLError{Number: 1452}, ErrMissingReference},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, mapConstraint(tc.err), tc.want)
		})
	}

	other := &mysql.MySQLError{Number: 1213}
	assert.Same(t, other, mapConstraint(other))
}

func TestProductRepo_ListEscapesKeyword(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	like := `%100\%\_off%`
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM products WHERE").
		WithArgs(like, like).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT (.+) FROM products WHERE").
		WithArgs(like, like, domain.DefaultPageSize, 0).
		WillReturnRows(sqlmock.NewRows(productRowColumns))

	req := &domain.ProductListRequest{Keyword: " 100%_off "}
	req.Normalize()
	products, total, err := NewProductRepository(db).List(context.Background(), req)
	require.NoError(t, err)

	assert.Empty(t, products)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
