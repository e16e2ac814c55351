package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/companion-studio/internal/common"
)

// SubscriptionChecker decides whether a user may create or edit companions.
type SubscriptionChecker interface {
	Active(ctx context.Context, userID string) (bool, error)
}

// AllowAll is the checker used until billing exists.
type AllowAll struct{}

func (AllowAll) Active(context.Context, string) (bool, error) { return true, nil }

func Subscription(checker SubscriptionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, _ := UserID(c)
		ok, err := checker.Active(c.Request.Context(), uid)
		if err != nil {
			common.Fail(c, http.StatusInternalServerError, 50003, "subscription check failed")
			c.Abort()
			return
		}
		if !ok {
			common.Fail(c, http.StatusForbidden, 40301, "subscription required")
			c.Abort()
			return
		}
		c.Next()
	}
}
