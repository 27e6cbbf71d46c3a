package suggest

import (
	"context"
	"strings"
	"testing"

	"bitbucket.org/mmdatafocus/inventory_review/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const deeliverCSV = "\ufeffbarcode,product_name,categories,supplier_name,retail_price\n" +
	"6001234567890,Coca-Cola Can 330ml,Drinks,Coca-Cola Beverages,12.99\n" +
	"123,Too Short,Drinks,Nobody,1\n" +
	"6009876543210,Coke Zero 330ml,Drinks,Coca-Cola Beverages,not-a-price\n" +
	"6005555555555,White Bread 700g,Bakery,Albany,18.50\n"

func TestParseDeeliverCSV(t *testing.T) {
	products, err := ParseDeeliverCSV(strings.NewReader(deeliverCSV))
	require.NoError(t, err)
	require.Len(t, products, 3, "short barcodes are skipped")

	assert.Equal(t, "6001234567890", products[0].Barcode)
	assert.Equal(t, "Coca-Cola Can 330ml", products[0].ProductName)
	assert.Equal(t, "12.99", products[0].RetailPrice.String())
	assert.True(t, products[1].RetailPrice.IsZero())
}

func TestParseDeeliverCSV_Empty(t *testing.T) {
	products, err := ParseDeeliverCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestDeeliver_Search(t *testing.T) {
	products, err := ParseDeeliverCSV(strings.NewReader(deeliverCSV))
	require.NoError(t, err)
	d := NewDeeliver(products)

	got := d.Search("330ml coca")
	require.NotEmpty(t, got)
	assert.Equal(t, "Coca-Cola Can 330ml", got[0].ProductName)

	got = d.Search("white bred 700g")
	require.NotEmpty(t, got, "typos fall back to edit distance")
	assert.Equal(t, "White Bread 700g", got[0].ProductName)

	assert.Empty(t, d.Search("   "))

	d.Limit = 1
	assert.Len(t, d.Search("330ml"), 1)
}

func TestDeeliver_SuggestAndDetails(t *testing.T) {
	products, err := ParseDeeliverCSV(strings.NewReader(deeliverCSV))
	require.NoError(t, err)
	d := NewDeeliver(products)

	got := d.Suggest(context.Background(), "bread")
	require.Len(t, got, 1)
	assert.Equal(t, "6005555555555", got[0].Code)
	assert.Equal(t, "R18.50", got[0].Price)
	assert.Equal(t, "Bakery / Albany", got[0].Description)

	details := d.Details(context.Background(), "6005555555555")
	require.NotNil(t, details)
	assert.Equal(t, "Albany", details.Brand)
	assert.Nil(t, d.Details(context.Background(), "0000000000000"))
}

func TestLoadDeeliver_MissingCatalogIsEmpty(t *testing.T) {
	d := LoadDeeliver(context.Background(), utils.NewMemoryBlobStore(), "deeliver.csv")
	assert.Empty(t, d.Search("cola"))
}

func TestLoadDeeliver_FromBlobStore(t *testing.T) {
	blobs := utils.NewMemoryBlobStore()
	require.NoError(t, blobs.Put(context.Background(), "deeliver.csv", []byte(deeliverCSV), "text/csv"))

	d := LoadDeeliver(context.Background(), blobs, "deeliver.csv")
	assert.Len(t, d.Search("coke"), 1)
}
