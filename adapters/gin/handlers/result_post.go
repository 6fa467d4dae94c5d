package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/loverust/paybridge/adapters/ginutil"
	core "github.com/loverust/paybridge/core"
)

// resultProducts is the strict vocabulary of the legacy result callback.
// Unlike the notify path, anything else is a hard 400.
var resultProducts = map[string]string{
	"vip_7":  "vip_7d",
	"vip_14": "vip_14d",
	"vip_30": "vip_30d",
}

// HandleResultPOST accepts the processor's legacy result callback: secret
// in the body only, fixed product table, no approval fields.
func HandleResultPOST(svc *core.Service, apiSecret string, rl ginutil.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLResult) {
			ginutil.TooMany(c)
			return
		}

		body := bodySource(c)
		sources := []core.Source{body}
		n := core.Extract(sources)
		if n.Secret != apiSecret {
			ginutil.BadRequest(c, "unauthorized")
			return
		}

		skuToken, ok := resultProducts[core.PickFirst(sources, []string{"product", "product_id", "item", "plan"})]
		if !ok {
			ginutil.BadRequest(c, "invalid_product")
			return
		}

		// The legacy callback carries no status; reaching it at all means
		// the charge settled.
		n.Status = "approved"
		n.ProductCandidates = []string{skuToken}

		out, err := svc.ProcessNotification(c.Request.Context(), n)
		if err != nil {
			switch {
			case errors.Is(err, core.ErrInvalidPlayerID):
				ginutil.BadRequest(c, "invalid_steamid64")
			case errors.Is(err, core.ErrMissingTxnID):
				ginutil.BadRequest(c, "missing_txn_id")
			case errors.Is(err, core.ErrRconUnavailable):
				ginutil.BadGateway(c, "rcon_not_configured")
			default:
				ginutil.BadGateway(c, "rcon_failed")
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"ok":        true,
			"granted":   out.Status == core.OutcomeGranted,
			"duplicate": out.Status == core.OutcomeDuplicate,
			"product":   skuToken,
			"steamid64": n.SteamID,
		})
	}
}
