package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"payreports/internal/common/money"
	"payreports/internal/rates"
	"payreports/internal/report"
	"payreports/internal/report/store"
)

type stubConverter struct {
	rate float64
	err  error
}

func (c *stubConverter) Convert(ctx context.Context, amount money.Money) (int64, error) {
	if amount.Currency == money.Reference {
		return amount.AmountMinor, nil
	}
	if c.err != nil {
		return 0, c.err
	}
	return int64(float64(amount.AmountMinor) * c.rate), nil
}

func newTestServer(t *testing.T, conv report.Converter) (*httptest.Server, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := report.NewService(conv, st, nil, logger)
	srv := httptest.NewServer(NewHandler(svc).Routes())
	t.Cleanup(srv.Close)
	return srv, st
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
}

const singlePayByLink = `{"pay_by_link": [
	{
		"created_at": "2022-05-13T19:12:02.370518+02:00",
		"currency": "EUR",
		"amount": 40000,
		"description": "Car",
		"bank": "idea_bank"
	}
]}`

const mixedBatch = `{
	"pay_by_link": [
		{"created_at":"2022-05-13T19:12:02.370518+02:00","currency":"EUR","amount":40000,"description":"Car","bank":"idea_bank"},
		{"created_at":"2022-01-02T11:58:02.370518+07:00","currency":"USD","amount":9999,"description":"Clothing store","bank":"mbank"}
	],
	"dp": [
		{"created_at":"2022-03-21T11:32:11.370518+03:00","currency":"PLN","amount":31700,"description":"Restaurant","iban":"PLNOA123435467887653"},
		{"created_at":"2022-04-21T21:34:11.370518+01:00","currency":"USD","amount":2200,"description":"Toy Store","iban":"GERSXOA86756435435465468"}
	],
	"card": [
		{"created_at":"2022-05-21T19:20:02.370518+02:00","currency":"EUR","amount":2000,"description":"Restaurant","cardholder_name":"Jan","cardholder_surname":"Kowalski","card_number":"1234567890000"},
		{"created_at":"2021-11-21T11:02:02.370518+04:00","currency":"GBP","amount":200,"description":"Ice cream shop","cardholder_name":"Steven","cardholder_surname":"Gerrard","card_number":"11112222333344445555"}
	]
}`

func TestGenerateReportSinglePayByLink(t *testing.T) {
	srv, _ := newTestServer(t, &stubConverter{rate: 2})

	resp := postJSON(t, srv.URL+"/report", singlePayByLink)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got []map[string]interface{}
	decodeBody(t, resp, &got)

	if len(got) != 1 {
		t.Fatalf("report length = %d, want 1", len(got))
	}

	entry := got[0]
	want := map[string]interface{}{
		"date":          "2022-05-13T17:12:02.370518Z",
		"type":          "pay_by_link",
		"payment_mean":  "idea_bank",
		"description":   "Car",
		"amount":        float64(40000),
		"currency":      "EUR",
		"amount_in_pln": float64(80000),
	}
	for field, wantVal := range want {
		if entry[field] != wantVal {
			t.Errorf("%s = %v, want %v", field, entry[field], wantVal)
		}
	}
}

func TestGenerateReportMixedBatchOrdering(t *testing.T) {
	srv, _ := newTestServer(t, &stubConverter{rate: 2})

	resp := postJSON(t, srv.URL+"/report", mixedBatch)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got []map[string]interface{}
	decodeBody(t, resp, &got)

	if len(got) != 6 {
		t.Fatalf("report length = %d, want 6", len(got))
	}

	wantDates := []string{
		"2021-11-21T07:02:02.370518Z",
		"2022-01-02T04:58:02.370518Z",
		"2022-03-21T08:32:11.370518Z",
		"2022-04-21T20:34:11.370518Z",
		"2022-05-13T17:12:02.370518Z",
		"2022-05-21T17:20:02.370518Z",
	}
	wantMeans := []string{
		"Steven Gerrard 1111************5555",
		"mbank",
		"PLNOA123435467887653",
		"GERSXOA86756435435465468",
		"idea_bank",
		"Jan Kowalski 1234*****0000",
	}
	for i := range got {
		if got[i]["date"] != wantDates[i] {
			t.Errorf("entry %d date = %v, want %v", i, got[i]["date"], wantDates[i])
		}
		if got[i]["payment_mean"] != wantMeans[i] {
			t.Errorf("entry %d payment_mean = %v, want %v", i, got[i]["payment_mean"], wantMeans[i])
		}
		if _, ok := got[i]["amount_in_pln"].(float64); !ok {
			t.Errorf("entry %d amount_in_pln missing: %v", i, got[i]["amount_in_pln"])
		}
	}
}

func TestGenerateReportFutureDate(t *testing.T) {
	srv, _ := newTestServer(t, &stubConverter{rate: 2})

	body := `{"card": [
		{"created_at":"3000-05-13T19:12:02.370518+02:00","currency":"EUR","amount":2000,"description":"Restaurant","cardholder_name":"Jan","cardholder_surname":"Kowalski","card_number":"1234567890000"}
	]}`

	resp := postJSON(t, srv.URL+"/report", body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	var got map[string][]string
	decodeBody(t, resp, &got)

	if msgs := got["created_at"]; len(msgs) != 1 || msgs[0] != "Date cannot be from the future!" {
		t.Errorf("error body = %v", got)
	}
}

func TestGenerateReportUnsupportedType(t *testing.T) {
	srv, _ := newTestServer(t, &stubConverter{rate: 2})

	body := `{"blik": [
		{"created_at":"2022-05-13T19:12:02.370518+02:00","currency":"EUR","amount":2000,"description":"x","bank":"b"}
	]}`

	resp := postJSON(t, srv.URL+"/report", body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	var got map[string]string
	decodeBody(t, resp, &got)

	if got["detail"] != "Unsupported type of payment" {
		t.Errorf("detail = %q", got["detail"])
	}
}

func TestGenerateReportUnsupportedCurrency(t *testing.T) {
	srv, _ := newTestServer(t, &stubConverter{rate: 2})

	body := `{"dp": [
		{"created_at":"2022-03-21T11:32:11.370518+03:00","currency":"CHF","amount":31700,"description":"Restaurant","iban":"PLNOA123435467887653"}
	]}`

	resp := postJSON(t, srv.URL+"/report", body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	var got map[string][]string
	decodeBody(t, resp, &got)

	if msgs := got["currency"]; len(msgs) != 1 || msgs[0] != `"CHF" is not a valid choice.` {
		t.Errorf("error body = %v", got)
	}
}

func TestGenerateReportRateSourceDown(t *testing.T) {
	srv, _ := newTestServer(t, &stubConverter{err: rates.ErrUnavailable})

	resp := postJSON(t, srv.URL+"/report", singlePayByLink)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}

	var got map[string]string
	decodeBody(t, resp, &got)

	if got["detail"] != "Service temporarily unavailable, try again later." {
		t.Errorf("detail = %q", got["detail"])
	}
}

func TestGenerateReportMalformedBody(t *testing.T) {
	srv, _ := newTestServer(t, &stubConverter{rate: 2})

	resp := postJSON(t, srv.URL+"/report", `{"pay_by_link": `)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCustomerReportSaveAndRetrieve(t *testing.T) {
	srv, st := newTestServer(t, &stubConverter{rate: 2})

	// First save
	resp := postJSON(t, srv.URL+"/customer-report/1", singlePayByLink)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	var firstSaved []map[string]interface{}
	decodeBody(t, resp, &firstSaved)

	if st.Len() != 1 {
		t.Fatalf("store holds %d reports, want 1", st.Len())
	}

	// Retrieve equals what was saved
	getResp, err := http.Get(srv.URL + "/customer-report/1")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", getResp.StatusCode)
	}
	var firstFetched []map[string]interface{}
	decodeBody(t, getResp, &firstFetched)

	if len(firstFetched) != 1 || firstFetched[0]["payment_mean"] != "idea_bank" {
		t.Errorf("fetched report = %v", firstFetched)
	}

	// Second save replaces the first
	resp = postJSON(t, srv.URL+"/customer-report/1", mixedBatch)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	if st.Len() != 1 {
		t.Errorf("store holds %d reports after overwrite, want 1", st.Len())
	}

	getResp, err = http.Get(srv.URL + "/customer-report/1")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var secondFetched []map[string]interface{}
	decodeBody(t, getResp, &secondFetched)

	if len(secondFetched) != 6 {
		t.Errorf("fetched report length = %d, want 6", len(secondFetched))
	}
}

func TestCustomerReportNotFound(t *testing.T) {
	srv, _ := newTestServer(t, &stubConverter{rate: 2})

	resp, err := http.Get(srv.URL + "/customer-report/2")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}

	var got map[string]string
	decodeBody(t, resp, &got)

	if got["detail"] != "Not found." {
		t.Errorf("detail = %q", got["detail"])
	}
}

func TestCustomerReportInvalidIdentifier(t *testing.T) {
	srv, _ := newTestServer(t, &stubConverter{rate: 2})

	for _, id := range []string{"abc", "0", "-5"} {
		resp, err := http.Get(srv.URL + "/customer-report/" + id)
		if err != nil {
			t.Fatalf("GET %s: %v", id, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("id %q: status = %d, want 404", id, resp.StatusCode)
		}
	}
}

func TestFailedSaveLeavesNoReport(t *testing.T) {
	srv, st := newTestServer(t, &stubConverter{err: rates.ErrUnavailable})

	resp := postJSON(t, srv.URL+"/customer-report/1", singlePayByLink)
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
	if st.Len() != 0 {
		t.Errorf("store holds %d reports after failed generation, want 0", st.Len())
	}
}
