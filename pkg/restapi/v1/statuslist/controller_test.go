/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package statuslist

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	statuslistsvc "github.com/credstatus/csl-service/pkg/service/statuslist"
	statuslistapi "github.com/credstatus/csl-service/pkg/statuslist"
)

const testDID = "did:cheqd:testnet:7bf81a20-633c-4cc7-bc4a-5a45801005e0"

type fakeService struct {
	createUnencryptedReq *statuslistsvc.CreateListRequest
	createEncryptedReq   *statuslistsvc.CreateEncryptedListRequest
	updateReq            *statuslistsvc.UpdateRequest
	updateManyReqs       []*statuslistsvc.UpdateRequest
	checkReq             *statuslistsvc.CheckRequest
	searchReq            *statuslistsvc.SearchRequest
	err                  error
}

func (f *fakeService) CreateUnencrypted(_ context.Context,
	req *statuslistsvc.CreateListRequest) (*statuslistsvc.CreateResult, error) {
	f.createUnencryptedReq = req

	return &statuslistsvc.CreateResult{Created: true}, f.err
}

func (f *fakeService) CreateEncrypted(_ context.Context,
	req *statuslistsvc.CreateEncryptedListRequest) (*statuslistsvc.CreateResult, error) {
	f.createEncryptedReq = req

	return &statuslistsvc.CreateResult{Created: true, SymmetricKey: "aa"}, f.err
}

func (f *fakeService) Update(_ context.Context,
	req *statuslistsvc.UpdateRequest) (*statuslistsvc.UpdateResult, error) {
	f.updateReq = req

	return &statuslistsvc.UpdateResult{Updated: true, Revoked: []bool{true}}, f.err
}

func (f *fakeService) UpdateMany(_ context.Context,
	reqs []*statuslistsvc.UpdateRequest) ([]*statuslistsvc.UpdateResult, error) {
	f.updateManyReqs = reqs

	return []*statuslistsvc.UpdateResult{{Updated: true}}, f.err
}

func (f *fakeService) Check(_ context.Context,
	req *statuslistsvc.CheckRequest) (*statuslistsvc.CheckResult, error) {
	f.checkReq = req

	revoked := true

	return &statuslistsvc.CheckResult{Checked: true, Revoked: &revoked}, f.err
}

func (f *fakeService) Search(_ context.Context,
	req *statuslistsvc.SearchRequest) (*statuslistsvc.SearchResult, error) {
	f.searchReq = req

	return &statuslistsvc.SearchResult{Found: true}, f.err
}

func post(t *testing.T, target, body string,
	handler func(echo.Context) error) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := httptest.NewRecorder()

	require.NoError(t, handler(echo.New().NewContext(req, rec)))

	return rec
}

func TestController_CreateStatusList(t *testing.T) {
	t.Run("unencrypted", func(t *testing.T) {
		svc := &fakeService{}
		controller := NewController(&Config{Service: svc})

		rec := post(t, "/v1/status-lists",
			`{"did":"`+testDID+`","statusListName":"inventory","listType":"BitstringStatusList",
			"statusPurpose":["revocation"],"length":8}`,
			controller.CreateStatusList)

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, svc.createUnencryptedReq)
		require.Nil(t, svc.createEncryptedReq)
		require.Equal(t, testDID, svc.createUnencryptedReq.IssuerDID)
		require.Equal(t, statuslistapi.BitstringStatusList, svc.createUnencryptedReq.Type)
	})

	t.Run("encrypted", func(t *testing.T) {
		svc := &fakeService{}
		controller := NewController(&Config{Service: svc})

		rec := post(t, "/v1/status-lists",
			`{"did":"`+testDID+`","statusListName":"inventory","listType":"StatusList2021",
			"statusPurpose":["revocation"],"encrypted":true,
			"feePaymentAddress":"cheqd1xyz","feePaymentAmount":"0.50","feePaymentWindow":60}`,
			controller.CreateStatusList)

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, svc.createEncryptedReq)
		require.Nil(t, svc.createUnencryptedReq)
		require.Equal(t, "0.50", svc.createEncryptedReq.FeePaymentAmount)
		require.Contains(t, rec.Body.String(), `"symmetricKey":"aa"`)
	})

	t.Run("malformed body", func(t *testing.T) {
		controller := NewController(&Config{Service: &fakeService{}})

		req := httptest.NewRequest(http.MethodPost, "/v1/status-lists", strings.NewReader("{"))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

		err := controller.CreateStatusList(echo.New().NewContext(req, httptest.NewRecorder()))
		require.ErrorIs(t, err, statuslistapi.ErrValidation)
	})
}

func TestController_UpdateStatusList(t *testing.T) {
	svc := &fakeService{}
	controller := NewController(&Config{Service: svc})

	rec := post(t, "/v1/status-lists/update",
		`{"did":"`+testDID+`","statusListName":"inventory","listType":"BitstringStatusList",
		"statusAction":"revoke","indices":[5,7]}`,
		controller.UpdateStatusList)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []int{5, 7}, svc.updateReq.Indices)
	require.Equal(t, statuslistapi.ActionRevoke, svc.updateReq.Action)
}

func TestController_UpdateStatusLists(t *testing.T) {
	svc := &fakeService{}
	controller := NewController(&Config{Service: svc})

	rec := post(t, "/v1/status-lists/updates",
		`[{"did":"`+testDID+`","statusListName":"a","statusAction":"revoke","indices":[1]},
		{"did":"`+testDID+`","statusListName":"b","statusAction":"suspend","indices":[2]}]`,
		controller.UpdateStatusLists)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.updateManyReqs, 2)
	require.Equal(t, "b", svc.updateManyReqs[1].Name)
}

func TestController_CheckStatusList(t *testing.T) {
	svc := &fakeService{}
	controller := NewController(&Config{Service: svc})

	rec := post(t, "/v1/status-lists/check",
		`{"did":"`+testDID+`","statusListName":"inventory","listType":"BitstringStatusList",
		"index":42,"statusPurpose":"revocation","makeFeePayment":true}`,
		controller.CheckStatusList)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 42, svc.checkReq.Index)
	require.True(t, svc.checkReq.MakeFeePayment)
	require.Contains(t, rec.Body.String(), `"revoked":true`)
}

func TestController_SearchStatusList(t *testing.T) {
	svc := &fakeService{}
	controller := NewController(&Config{Service: svc})

	req := httptest.NewRequest(http.MethodGet,
		"/v1/status-lists?did="+testDID+"&statusListName=inventory"+
			"&listType=BitstringStatusList&statusPurpose=revocation", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, controller.SearchStatusList(echo.New().NewContext(req, rec)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, testDID, svc.searchReq.IssuerDID)
	require.Equal(t, statuslistapi.PurposeRevocation, svc.searchReq.Purpose)
}

func TestController_Register(t *testing.T) {
	e := echo.New()

	NewController(&Config{Service: &fakeService{}}).Register(e)

	paths := make(map[string]bool)
	for _, r := range e.Routes() {
		paths[r.Method+" "+r.Path] = true
	}

	require.True(t, paths["POST /v1/status-lists"])
	require.True(t, paths["POST /v1/status-lists/update"])
	require.True(t, paths["POST /v1/status-lists/updates"])
	require.True(t, paths["POST /v1/status-lists/check"])
	require.True(t, paths["GET /v1/status-lists"])
}
