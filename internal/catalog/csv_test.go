package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `product_id,product_name,description,price,category
1,Gaming Laptop,High performance laptop,1299.99,Electronics
2,Wireless Mouse,Ergonomic wireless mouse,25.50,Electronics
3,Leather Wallet,Handmade leather wallet,45,Accessories
`

func TestReadCSV(t *testing.T) {
	products, err := ReadCSV(strings.NewReader(sampleCSV), nil)
	require.NoError(t, err)
	require.Len(t, products, 3)

	assert.Equal(t, 1, products[0].ID)
	assert.Equal(t, "Gaming Laptop", products[0].Name)
	assert.Equal(t, 1299.99, products[0].Price)
	assert.Equal(t, "Electronics", products[0].Category)
}

func TestReadCSVSkipsBadRows(t *testing.T) {
	data := `product_id,product_name,description,price,category
1,Gaming Laptop,High performance laptop,1299.99,Electronics
oops,Broken Row,not a number,free,Electronics
3,Leather Wallet,Handmade leather wallet,45,Accessories
`
	products, err := ReadCSV(strings.NewReader(data), nil)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, 3, products[1].ID)
}

func TestReadCSVMissingColumn(t *testing.T) {
	data := "product_id,product_name,price\n1,Laptop,100\n"
	_, err := ReadCSV(strings.NewReader(data), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "description")
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	products, err := LoadCSV(path, nil)
	require.NoError(t, err)
	assert.Len(t, products, 3)

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"), nil)
	require.Error(t, err)
}
