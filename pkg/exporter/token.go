package exporter

import (
	"context"
	"net/http"

	"fbexport/pkg/errors"
	"fbexport/pkg/graph"
	"fbexport/pkg/logger"
)

// checkToken verifies the access token is live and carries every required
// permission. A successful HTTP call can still yield InvalidToken.
func checkToken(ctx context.Context, client *graph.Client, required []string, log logger.Logger) errors.Code {
	rawURL := client.PermissionsURL()
	resp, err := client.Fetch(ctx, rawURL)
	if err != nil {
		log.WithError(err).Error("Unable to query token permissions")
		return errors.Failed
	}

	var perms graph.Permissions
	if err := client.Decode(resp, rawURL, &perms); err != nil {
		log.WithError(err).Error("Unable to parse token permissions")
		return errors.Failed
	}

	if resp.Status != http.StatusOK || len(perms.Data) == 0 {
		if perms.Error != nil && perms.Error.IsQuotaError() {
			log.Error("Exceeded app request quota, wait for next round")
			return errors.QuotaExceeded
		}
		fields := map[string]interface{}{"status": resp.Status}
		if perms.Error != nil {
			fields["graph_error"] = perms.Error.Error()
		}
		log.InfoWithFields("Invalid access token", fields)
		return errors.InvalidToken
	}

	for _, perm := range required {
		if !perms.Granted(perm) {
			log.InfoWithFields("Access token lacks a required permission", map[string]interface{}{
				"permission": perm,
			})
			return errors.InvalidToken
		}
	}
	return errors.Ok
}

// resolveOwner returns the id of the token's user
func resolveOwner(ctx context.Context, client *graph.Client, log logger.Logger) (string, errors.Code) {
	var me graph.Me
	if err := client.GetJSON(ctx, client.MeURL(), &me); err != nil {
		log.WithError(err).Error("Unable to resolve token owner")
		return "", errors.CodeOf(err)
	}
	if me.ID == "" {
		log.Error("Token owner has no id")
		return "", errors.Failed
	}
	return me.ID, errors.Ok
}
