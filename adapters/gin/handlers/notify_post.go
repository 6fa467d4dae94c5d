package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/loverust/paybridge/adapters/ginutil"
	core "github.com/loverust/paybridge/core"
)

// HandleNotifyPOST accepts the payment processor's purchase callback.
// Business-level rejections (duplicate, unknown product, unapproved) answer
// 200 so the processor does not retry-storm; only malformed input, bad
// auth, and console failures are error statuses.
func HandleNotifyPOST(svc *core.Service, apiSecret string, rl ginutil.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLNotify) {
			ginutil.TooMany(c)
			return
		}

		sources := requestSources(c)
		if secret(c, sources) != apiSecret {
			ginutil.BadRequest(c, "unauthorized")
			return
		}

		n := core.Extract(sources)
		out, err := svc.ProcessNotification(c.Request.Context(), n)
		if err != nil {
			switch {
			case errors.Is(err, core.ErrInvalidPlayerID):
				ginutil.BadRequest(c, "missing_steamid64")
			case errors.Is(err, core.ErrMissingTxnID):
				ginutil.BadRequest(c, "missing_txn_id")
			case errors.Is(err, core.ErrRconUnavailable):
				ginutil.BadGateway(c, "rcon_not_configured")
			default:
				ginutil.BadGateway(c, "rcon_failed")
			}
			return
		}

		switch out.Status {
		case core.OutcomeGranted:
			c.JSON(http.StatusOK, gin.H{
				"ok":      true,
				"granted": true,
				"product": out.SKU,
				"partial": len(out.SubFailures) > 0,
			})
		case core.OutcomeDuplicate:
			c.JSON(http.StatusOK, gin.H{"ok": true, "duplicate": true})
		case core.OutcomeNotApproved:
			c.JSON(http.StatusOK, gin.H{"ok": true, "ignored": true})
		case core.OutcomeUnknownProduct:
			c.JSON(http.StatusOK, gin.H{"ok": true, "unknown_product": true, "reason": string(out.Reason)})
		case core.OutcomeDonation:
			c.JSON(http.StatusOK, gin.H{"ok": true, "granted": false, "donation": true})
		default:
			ginutil.ServerErr(c, "server_error")
		}
	}
}
