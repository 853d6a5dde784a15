/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package httpgateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/credstatus/csl-service/pkg/resource"
	"github.com/credstatus/csl-service/pkg/statuslist"
)

const testDID = "did:cheqd:testnet:7bf81a20-633c-4cc7-bc4a-5a45801005e0"

func TestGateway_Publish(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/1.0/create-resource", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, testDID, req["did"])
		require.Equal(t, "employment-status", req["name"])

		data, err := base64.StdEncoding.DecodeString(req["data"].(string))
		require.NoError(t, err)
		require.Equal(t, "payload", string(data))

		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{
			"resource": {
				"resourceId": "res-1",
				"resourceName": "employment-status",
				"resourceType": "BitstringStatusListCredential",
				"resourceVersion": "v1",
				"created": "2024-05-01T10:00:00Z"
			}
		}`)
	}))
	defer server.Close()

	gateway := New(&Config{RegistrarURL: server.URL})

	metadata, err := gateway.Publish(context.Background(), testDID, []byte("payload"),
		&resource.PublishOptions{
			Name:         "employment-status",
			ResourceType: "BitstringStatusListCredential",
			Version:      "v1",
		})
	require.NoError(t, err)
	require.Equal(t, "res-1", metadata.ResourceID)
	require.Equal(t, "v1", metadata.ResourceVersion)
	require.False(t, metadata.Created.IsZero())

	t.Run("registrar failure", func(t *testing.T) {
		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer failing.Close()

		_, err = New(&Config{RegistrarURL: failing.URL}).Publish(context.Background(),
			testDID, []byte("payload"), &resource.PublishOptions{Name: "x"})
		require.ErrorIs(t, err, statuslist.ErrLedger)
	})

	t.Run("response without resource metadata", func(t *testing.T) {
		empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{}`)
		}))
		defer empty.Close()

		_, err = New(&Config{RegistrarURL: empty.URL}).Publish(context.Background(),
			testDID, []byte("payload"), &resource.PublishOptions{Name: "x"})
		require.ErrorIs(t, err, statuslist.ErrLedger)
	})
}

func TestGateway_DereferenceCollection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/1.0/identifiers/"+testDID, r.URL.Path)

		fmt.Fprint(w, `{
			"didDocumentMetadata": {
				"linkedResourceMetadata": [
					{
						"resourceId": "res-1",
						"resourceName": "employment-status",
						"resourceType": "BitstringStatusListCredential",
						"created": "2024-05-01T10:00:00Z",
						"nextVersionId": "res-2"
					},
					{
						"resourceId": "res-2",
						"resourceName": "employment-status",
						"resourceType": "BitstringStatusListCredential",
						"created": "2024-05-02T10:00:00Z",
						"previousVersionId": "res-1",
						"encrypted": true,
						"paymentConditions": [{
							"type": "timelockPayment",
							"feePaymentAddress": "cheqd1xl5wccz667lk06ahama26pdqvrkz5aws6m0ztp",
							"feePaymentAmount": "0.50",
							"intervalInSeconds": 3600
						}]
					},
					{
						"resourceId": "res-3",
						"resourceName": "another-list",
						"resourceType": "StatusList2021Revocation",
						"created": "2024-05-03T10:00:00Z"
					}
				]
			}
		}`)
	}))
	defer server.Close()

	gateway := New(&Config{ResolverURL: server.URL})

	versions, err := gateway.DereferenceCollection(context.Background(), testDID,
		&resource.CollectionQuery{Name: "employment-status", ResourceType: "BitstringStatusListCredential"})
	require.NoError(t, err)
	require.Len(t, versions, 2)
	require.Equal(t, "res-2", versions[0].NextVersionID)
	require.Equal(t, "res-1", versions[1].PreviousVersionID)
	require.True(t, versions[1].Encrypted)
	require.Len(t, versions[1].PaymentConditions, 1)
	require.Equal(t, "0.50", versions[1].PaymentConditions[0].FeePaymentAmount)

	t.Run("no filter returns everything", func(t *testing.T) {
		versions, err = gateway.DereferenceCollection(context.Background(), testDID, nil)
		require.NoError(t, err)
		require.Len(t, versions, 3)
	})
}

func TestGateway_DereferenceResource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/1.0/identifiers/"+testDID+"/resources/res-1" {
			fmt.Fprint(w, `{"encodedList":"uH4sIAAA"}`)
			return
		}

		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	gateway := New(&Config{ResolverURL: server.URL})

	payload, err := gateway.DereferenceResource(context.Background(), testDID, "res-1")
	require.NoError(t, err)
	require.Equal(t, "uH4sIAAA", gjson.GetBytes(payload, "encodedList").String())

	t.Run("missing resource is not found", func(t *testing.T) {
		_, err = gateway.DereferenceResource(context.Background(), testDID, "res-404")
		require.ErrorIs(t, err, statuslist.ErrNotFound)
	})
}
