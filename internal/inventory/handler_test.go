package inventory

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/udharbook/internal/shared"
)

func newTestRouter(svc *Service) http.Handler {
	h := NewHandler(nil, svc)
	r := chi.NewRouter()
	r.Route("/products", h.MountProductRoutes)
	r.Route("/purchases", h.MountPurchaseRoutes)
	return r
}

func signedIn(req *http.Request) *http.Request {
	sess := &shared.Session{}
	sess.SetAccount("acc-1")
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func TestHandlerProductAndPurchaseFlow(t *testing.T) {
	svc := newTestService(t, nil)
	router := newTestRouter(svc)

	rr := httptest.NewRecorder()
	body := `{"name":"Sugar 1kg","sellingPriceExclTax":45,"costPriceExclTax":38,"stockQty":0,"gstRatePercent":5}`
	router.ServeHTTP(rr, signedIn(httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body))))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var product Product
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &product))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, signedIn(httptest.NewRequest(http.MethodGet, "/products?filter=outOfStock", nil)))
	require.Equal(t, http.StatusOK, rr.Code)
	var outOfStock []Product
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &outOfStock))
	require.Len(t, outOfStock, 1)

	rr = httptest.NewRecorder()
	body = `{"productId":"` + product.ID + `","qty":6,"unitPriceExclTax":40,"paymentStatus":"unpaid"}`
	router.ServeHTTP(rr, signedIn(httptest.NewRequest(http.MethodPost, "/purchases", strings.NewReader(body))))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var purchase Purchase
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &purchase))
	assert.Equal(t, PaymentUnpaid, purchase.PaymentStatus)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, signedIn(httptest.NewRequest(http.MethodGet, "/products/"+product.ID, nil)))
	require.Equal(t, http.StatusOK, rr.Code)
	var got Product
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, 6, got.StockQty)
	assert.Equal(t, 40.0, got.CostPrice)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, signedIn(httptest.NewRequest(http.MethodPost, "/purchases/"+purchase.ID+"/pay", nil)))
	require.Equal(t, http.StatusOK, rr.Code)
	var paid Purchase
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &paid))
	assert.Equal(t, PaymentPaid, paid.PaymentStatus)
}

func TestHandlerRejectsInvalidPurchase(t *testing.T) {
	svc := newTestService(t, nil)
	router := newTestRouter(svc)
	p := addProduct(t, svc, CreateProductRequest{Name: "Tea", SellingPrice: 10, StockQty: 1})

	rr := httptest.NewRecorder()
	body := `{"productId":"` + p.ID + `","qty":0,"unitPriceExclTax":5,"paymentStatus":"paid"}`
	router.ServeHTTP(rr, signedIn(httptest.NewRequest(http.MethodPost, "/purchases", strings.NewReader(body))))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	body = `{"productId":"nope","qty":1,"unitPriceExclTax":5,"paymentStatus":"paid"}`
	router.ServeHTTP(rr, signedIn(httptest.NewRequest(http.MethodPost, "/purchases", strings.NewReader(body))))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/products", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
