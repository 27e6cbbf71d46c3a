package suggest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPnP(t *testing.T, handler http.HandlerFunc) *PnP {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p := NewPnP()
	p.BaseURL = srv.URL
	p.Client = srv.Client()
	return p
}

func TestPnP_Suggest(t *testing.T) {
	p := newTestPnP(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/suggestions", r.URL.Path)
		assert.Equal(t, "coke", r.URL.Query().Get("term"))
		assert.Equal(t, "WC44", r.URL.Query().Get("storeCode"))
		assert.Equal(t, "20", r.URL.Query().Get("maxProducts"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"products":[
			{"name":"Coca-Cola 330ml","code":"000000000000123_EA","description":"can",
			 "price":{"formattedValue":"R12.99","value":12.99},
			 "images":[{"url":"https://img/1.png"},"https://img/2.png"]},
			{"name":"Coke Zero","code":"456","images":"https://img/3.png"}
		]}`))
	})

	got := p.Suggest(context.Background(), "coke")
	require.Len(t, got, 2)
	assert.Equal(t, "Coca-Cola 330ml", got[0].Name)
	assert.Equal(t, "000000000000123_EA", got[0].Code)
	assert.Equal(t, "R12.99", got[0].Price)
	require.NotNil(t, got[0].PriceValue)
	assert.Equal(t, "12.99", got[0].PriceValue.String())
	assert.Equal(t, []string{"https://img/1.png", "https://img/2.png"}, got[0].Images)
	assert.Equal(t, []string{"https://img/3.png"}, got[1].Images)
	assert.Nil(t, got[1].PriceValue)
}

func TestPnP_SuggestFailureIsEmpty(t *testing.T) {
	p := newTestPnP(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	got := p.Suggest(context.Background(), "coke")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPnP_DetailsFallsBackToDisplayBarcode(t *testing.T) {
	p := newTestPnP(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/123_EA", r.URL.Path)
		w.Write([]byte(`{"name":"Coca-Cola","brand":"Coca-Cola","defaultUnitOfMeasure":"EA",
			"price":{"formattedValue":"R12.99","value":12.99},
			"productDetailsDisplayInfoResponse":{"productDetailDisplayInfos":[
				{"displayInfoFields":[{"name":"Barcode","values":[{"value":"5449000000996"}]}]}
			]}}`))
	})

	details := p.Details(context.Background(), "123_EA")
	require.NotNil(t, details)
	assert.Equal(t, "5449000000996", details.Barcode)
	assert.Equal(t, "Coca-Cola", details.Brand)
	assert.Equal(t, "EA", details.UnitOfMeasure)
	assert.Equal(t, "R12.99", details.Price)
	assert.Equal(t, []string{}, details.Images)
}

func TestPnP_DetailsFailureIsNil(t *testing.T) {
	p := newTestPnP(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	assert.Nil(t, p.Details(context.Background(), "123"))
	assert.Nil(t, p.Details(context.Background(), ""))
}
