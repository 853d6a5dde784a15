/*
Copyright Credstatus Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	cmdutils "github.com/trustbloc/cmdutil-go/pkg/utils/cmd"

	"github.com/credstatus/csl-service/cmd/common"
	"github.com/credstatus/csl-service/pkg/observability/tracing"
)

const (
	commonEnvVarUsageText = "Alternatively, this can be set with the following environment variable: "

	hostURLFlagName      = "host-url"
	hostURLFlagShorthand = "u"
	hostURLFlagUsage     = "URL to run the csl-rest instance on. Format: HostName:Port."
	hostURLEnvKey        = "CSL_REST_HOST_URL"

	didResolverURLFlagName      = "did-resolver-url"
	didResolverURLFlagShorthand = "r"
	didResolverURLFlagUsage     = "DID resolver base URL used to dereference DID-Linked Resources. " +
		commonEnvVarUsageText + didResolverURLEnvKey
	didResolverURLEnvKey = "CSL_REST_DID_RESOLVER_URL"

	didRegistrarURLFlagName  = "did-registrar-url"
	didRegistrarURLFlagUsage = "DID registrar base URL used to publish DID-Linked Resources. " +
		commonEnvVarUsageText + didRegistrarURLEnvKey
	didRegistrarURLEnvKey = "CSL_REST_DID_REGISTRAR_URL"

	dkgServiceURLFlagName  = "dkg-service-url"
	dkgServiceURLFlagUsage = "DKG service base URL used to obtain symmetric content keys for " +
		"encrypted status lists. Encrypted list operations are unavailable when not set. " +
		commonEnvVarUsageText + dkgServiceURLEnvKey
	dkgServiceURLEnvKey = "CSL_REST_DKG_SERVICE_URL"

	ledgerEndpointsFlagName  = "ledger-endpoints"
	ledgerEndpointsFlagUsage = "Comma-separated network=url pairs mapping a ledger network to its " +
		"REST API base URL, used for fee payment reconciliation. " +
		"Example: mainnet=https://api.cheqd.net,testnet=https://api.testnet.cheqd.net. " +
		commonEnvVarUsageText + ledgerEndpointsEnvKey
	ledgerEndpointsEnvKey = "CSL_REST_LEDGER_ENDPOINTS"

	mongoDBURLFlagName  = "mongodb-url"
	mongoDBURLFlagUsage = "MongoDB connection string for the fee payment audit store. " +
		"The audit store is disabled when not set. " +
		commonEnvVarUsageText + mongoDBURLEnvKey
	mongoDBURLEnvKey = "CSL_REST_MONGODB_URL"

	databaseNameFlagName  = "database-name"
	databaseNameFlagUsage = "Name of the MongoDB database. Default: csl_service. " +
		commonEnvVarUsageText + databaseNameEnvKey
	databaseNameEnvKey = "CSL_REST_DATABASE_NAME"

	databaseTimeoutFlagName  = "database-timeout"
	databaseTimeoutFlagUsage = "Total time in seconds to wait until the datasources are available " +
		"before giving up. Default: 30 seconds. " +
		commonEnvVarUsageText + databaseTimeoutEnvKey
	databaseTimeoutEnvKey = "CSL_REST_DATABASE_TIMEOUT"

	redisURLFlagName  = "redis-url"
	redisURLFlagUsage = "Comma-separated list of redis addresses for the head version cache. " +
		"The cache is disabled when not set. " +
		commonEnvVarUsageText + redisURLEnvKey
	redisURLEnvKey = "CSL_REST_REDIS_URL"

	redisPasswordFlagName  = "redis-password" //nolint:gosec
	redisPasswordFlagUsage = "Redis password (optional). " +
		commonEnvVarUsageText + redisPasswordEnvKey
	redisPasswordEnvKey = "CSL_REST_REDIS_PASSWORD" //nolint:gosec

	promHTTPURLFlagName  = "prom-http-url"
	promHTTPURLFlagUsage = "URL that exposes the prometheus metrics endpoint. Format: HostName:Port. " +
		"Metrics are disabled when not set. " +
		commonEnvVarUsageText + promHTTPURLEnvKey
	promHTTPURLEnvKey = "CSL_REST_PROM_HTTP_URL"

	tracingExporterFlagName  = "tracing-exporter"
	tracingExporterFlagUsage = "The tracing span exporter type (JAEGER, STDOUT). " +
		"Tracing is disabled when not set. " +
		commonEnvVarUsageText + tracingExporterEnvKey
	tracingExporterEnvKey = "CSL_REST_TRACING_EXPORTER"

	tracingServiceNameFlagName  = "tracing-service-name"
	tracingServiceNameFlagUsage = "The name of the tracing service. Default: " +
		defaultTracingServiceName + ". " +
		commonEnvVarUsageText + tracingServiceNameEnvKey
	tracingServiceNameEnvKey = "CSL_REST_TRACING_SERVICE_NAME"

	defaultTracingServiceName = "csl-service"
	defaultDatabaseName       = "csl_service"
	defaultDatabaseTimeout    = 30

	splitLedgerEndpointLength = 2
)

type startupParameters struct {
	hostURL            string
	didResolverURL     string
	didRegistrarURL    string
	dkgServiceURL      string
	ledgerEndpoints    map[string]string
	mongoDBURL         string
	databaseName       string
	databaseTimeout    uint64
	redisURLs          []string
	redisPassword      string
	promHTTPURL        string
	tracingExporter    tracing.SpanExporterType
	tracingServiceName string
	logLevel           string
}

// nolint: funlen
func getStartupParameters(cmd *cobra.Command) (*startupParameters, error) {
	hostURL, err := cmdutils.GetUserSetVarFromString(cmd, hostURLFlagName, hostURLEnvKey, false)
	if err != nil {
		return nil, err
	}

	didResolverURL, err := cmdutils.GetUserSetVarFromString(cmd, didResolverURLFlagName,
		didResolverURLEnvKey, false)
	if err != nil {
		return nil, err
	}

	didRegistrarURL, err := cmdutils.GetUserSetVarFromString(cmd, didRegistrarURLFlagName,
		didRegistrarURLEnvKey, false)
	if err != nil {
		return nil, err
	}

	dkgServiceURL := cmdutils.GetUserSetOptionalVarFromString(cmd, dkgServiceURLFlagName,
		dkgServiceURLEnvKey)

	ledgerEndpoints, err := getLedgerEndpoints(cmd)
	if err != nil {
		return nil, err
	}

	mongoDBURL := cmdutils.GetUserSetOptionalVarFromString(cmd, mongoDBURLFlagName, mongoDBURLEnvKey)

	databaseName := cmdutils.GetUserSetOptionalVarFromString(cmd, databaseNameFlagName,
		databaseNameEnvKey)
	if databaseName == "" {
		databaseName = defaultDatabaseName
	}

	databaseTimeout, err := getDatabaseTimeout(cmd)
	if err != nil {
		return nil, err
	}

	redisURLs := cmdutils.GetUserSetOptionalCSVVar(cmd, redisURLFlagName, redisURLEnvKey)

	redisPassword := cmdutils.GetUserSetOptionalVarFromString(cmd, redisPasswordFlagName,
		redisPasswordEnvKey)

	promHTTPURL := cmdutils.GetUserSetOptionalVarFromString(cmd, promHTTPURLFlagName, promHTTPURLEnvKey)

	tracingExporter, tracingServiceName, err := getTracingParams(cmd)
	if err != nil {
		return nil, err
	}

	logLevel := cmdutils.GetUserSetOptionalVarFromString(cmd, common.LogLevelFlagName,
		common.LogLevelEnvKey)

	return &startupParameters{
		hostURL:            hostURL,
		didResolverURL:     didResolverURL,
		didRegistrarURL:    didRegistrarURL,
		dkgServiceURL:      dkgServiceURL,
		ledgerEndpoints:    ledgerEndpoints,
		mongoDBURL:         mongoDBURL,
		databaseName:       databaseName,
		databaseTimeout:    databaseTimeout,
		redisURLs:          redisURLs,
		redisPassword:      redisPassword,
		promHTTPURL:        promHTTPURL,
		tracingExporter:    tracingExporter,
		tracingServiceName: tracingServiceName,
		logLevel:           logLevel,
	}, nil
}

func getLedgerEndpoints(cmd *cobra.Command) (map[string]string, error) {
	pairs := cmdutils.GetUserSetOptionalCSVVar(cmd, ledgerEndpointsFlagName, ledgerEndpointsEnvKey)

	endpoints := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		split := strings.SplitN(pair, "=", splitLedgerEndpointLength)
		if len(split) != splitLedgerEndpointLength || split[0] == "" || split[1] == "" {
			return nil, fmt.Errorf("invalid ledger endpoint %q, expected network=url", pair)
		}

		endpoints[split[0]] = split[1]
	}

	return endpoints, nil
}

func getDatabaseTimeout(cmd *cobra.Command) (uint64, error) {
	timeoutStr := cmdutils.GetUserSetOptionalVarFromString(cmd, databaseTimeoutFlagName,
		databaseTimeoutEnvKey)

	if timeoutStr == "" {
		return defaultDatabaseTimeout, nil
	}

	timeout, err := strconv.ParseUint(timeoutStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse database timeout %q: %w", timeoutStr, err)
	}

	return timeout, nil
}

func getTracingParams(cmd *cobra.Command) (tracing.SpanExporterType, string, error) {
	exporter := cmdutils.GetUserSetOptionalVarFromString(cmd, tracingExporterFlagName,
		tracingExporterEnvKey)

	if !tracing.IsExporterSupported(exporter) {
		return "", "", fmt.Errorf("unsupported tracing exporter: %s", exporter)
	}

	serviceName := cmdutils.GetUserSetOptionalVarFromString(cmd, tracingServiceNameFlagName,
		tracingServiceNameEnvKey)
	if serviceName == "" {
		serviceName = defaultTracingServiceName
	}

	return exporter, serviceName, nil
}

func createFlags(startCmd *cobra.Command) {
	startCmd.Flags().StringP(hostURLFlagName, hostURLFlagShorthand, "", hostURLFlagUsage)
	startCmd.Flags().StringP(didResolverURLFlagName, didResolverURLFlagShorthand, "",
		didResolverURLFlagUsage)
	startCmd.Flags().StringP(didRegistrarURLFlagName, "", "", didRegistrarURLFlagUsage)
	startCmd.Flags().StringP(dkgServiceURLFlagName, "", "", dkgServiceURLFlagUsage)
	startCmd.Flags().StringSliceP(ledgerEndpointsFlagName, "", []string{}, ledgerEndpointsFlagUsage)
	startCmd.Flags().StringP(mongoDBURLFlagName, "", "", mongoDBURLFlagUsage)
	startCmd.Flags().StringP(databaseNameFlagName, "", "", databaseNameFlagUsage)
	startCmd.Flags().StringP(databaseTimeoutFlagName, "", "", databaseTimeoutFlagUsage)
	startCmd.Flags().StringSliceP(redisURLFlagName, "", []string{}, redisURLFlagUsage)
	startCmd.Flags().StringP(redisPasswordFlagName, "", "", redisPasswordFlagUsage)
	startCmd.Flags().StringP(promHTTPURLFlagName, "", "", promHTTPURLFlagUsage)
	startCmd.Flags().StringP(tracingExporterFlagName, "", "", tracingExporterFlagUsage)
	startCmd.Flags().StringP(tracingServiceNameFlagName, "", "", tracingServiceNameFlagUsage)
	startCmd.Flags().StringP(common.LogLevelFlagName, common.LogLevelFlagShorthand, "",
		common.LogLevelFlagUsage)
}
