package api

import (
	// Go Internal Packages
	"context"
	"io"
	"net/http"
	"regexp"

	// Local Packages
	errors "enrollpay/errors"
	models "enrollpay/models"
	checkout "enrollpay/services/checkout"
	reconcile "enrollpay/services/reconcile"
	utils "enrollpay/utils"

	// External Packages
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBytes = 64 << 10

// gateway references and checkout session ids
var referencePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,128}$`)

type addSiblingRequest struct {
	SessionID string                 `json:"session_id" binding:"required"`
	Draft     models.EnrollmentDraft `json:"draft"`
}

type checkoutRequest struct {
	SessionID string                 `json:"session_id" binding:"required"`
	Email     string                 `json:"email"`
	Draft     models.EnrollmentDraft `json:"draft"`
}

type verifyResponse struct {
	reconcile.Outcome
	Message string `json:"message"`
}

func (s *Server) handleAddSibling(c *gin.Context) {
	var req addSiblingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, errors.InvalidBodyErr(err))
		return
	}

	b := s.Sessions.Get(req.SessionID)
	b.Add(req.Draft, true)
	pending, familyID := b.Pending()

	c.JSON(http.StatusAccepted, gin.H{
		"session_id": req.SessionID,
		"family_id":  familyID,
		"pending":    len(pending),
	})
}

func (s *Server) handleCheckout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, errors.InvalidBodyErr(err))
		return
	}

	b := s.Sessions.Get(req.SessionID)
	f := b.Add(req.Draft, false)

	email := utils.FirstNonEmpty(req.Email, req.Draft.ParentEmail)
	res, err := s.Checkout.Begin(c.Request.Context(), checkout.Request{Email: email, Family: *f})
	if err != nil {
		b.Restore(*f)
		s.writeError(c, err)
		return
	}

	s.Sessions.Drop(req.SessionID)
	c.JSON(http.StatusCreated, res)
}

// handleVerify is the landing endpoint of the gateway redirect. It blocks until
// the enrollment is reconciled, the budget is spent or the client goes away.
func (s *Server) handleVerify(c *gin.Context) {
	reference := utils.FirstNonEmpty(c.Query("reference"), c.Query("trxref"))

	ctx := c.Request.Context()
	if s.VerifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.VerifyTimeout)
		defer cancel()
	}

	s.reconcile(c, ctx, reference)
}

// handleStatus checks once without waiting, for clients that drive their own polling.
func (s *Server) handleStatus(c *gin.Context) {
	reference := c.Param("reference")
	if !referencePattern.MatchString(reference) {
		ve := errors.ValidationErrs()
		ve.Add("reference", "must be 1 to 128 letters, digits, '.', '_' or '-'")
		s.writeError(c, errors.InvalidParamsErr(ve.Err()))
		return
	}
	s.reconcile(c, c.Request.Context(), reference, reconcile.WithMaxAttempts(1))
}

func (s *Server) reconcile(c *gin.Context, ctx context.Context, reference string, opts ...reconcile.Option) {
	out, err := s.Reconciler.Reconcile(ctx, reference, opts...)
	if err != nil {
		if c.Request.Context().Err() != nil {
			// client is gone, nobody to answer
			return
		}
		c.JSON(http.StatusAccepted, verifyResponse{Outcome: out, Message: out.Message()})
		return
	}

	c.JSON(statusForOutcome(out), verifyResponse{Outcome: out, Message: out.Message()})
}

func statusForOutcome(out reconcile.Outcome) int {
	switch out.State {
	case reconcile.StateResolved:
		return http.StatusOK
	case reconcile.StateExhausted:
		return http.StatusAccepted
	}

	switch out.Reason {
	case errors.CodeMissingReference:
		return http.StatusBadRequest
	case errors.CodeTransactionNotFound:
		return http.StatusNotFound
	case errors.CodePaymentFailed:
		return http.StatusPaymentRequired
	}
	return http.StatusServiceUnavailable
}

func (s *Server) handleWebhook(c *gin.Context) {
	provider := c.Param("provider")
	gw, ok := s.Gateways[provider]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown provider"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes))
	if err != nil {
		s.writeError(c, errors.InvalidBodyErr(err))
		return
	}

	evt, err := gw.ParseWebhook(c.Request.Header, body)
	if err != nil {
		s.Logger.Warn("rejected webhook", zap.String("provider", provider), zap.Error(err))
		s.writeError(c, err)
		return
	}
	if evt == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	err = s.Publisher.Publish(c.Request.Context(), *evt)
	if permanent(err) {
		// redelivery cannot change the result, the event is logged and acknowledged
		s.Logger.Warn("payment event rejected", zap.String("reference", evt.Reference), zap.String("reason", errors.CodeOf(err)), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "rejected", "reference": evt.Reference, "reason": errors.CodeOf(err)})
		return
	}
	if err != nil {
		s.Logger.Error("failed to hand off payment event", zap.String("reference", evt.Reference), zap.Error(err))
		// a non 2xx makes the gateway redeliver
		c.JSON(http.StatusInternalServerError, gin.H{"error": "event not accepted"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "accepted", "reference": evt.Reference})
}

func permanent(err error) bool {
	if err == nil {
		return false
	}
	switch errors.KindOf(err) {
	case errors.Invalid, errors.NotFound, errors.Conflict:
		return true
	}
	return false
}

func (s *Server) writeError(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}
	if code := errors.CodeOf(err); code != "" {
		body["reason"] = code
	}

	var perr *errors.PersistenceError
	if errors.As(err, &perr) {
		body["reference"] = perr.Reference
		body["authorization_url"] = perr.AuthorizationURL
	}

	status := http.StatusInternalServerError
	switch errors.KindOf(err) {
	case errors.Invalid:
		status = http.StatusBadRequest
	case errors.NotFound:
		status = http.StatusNotFound
	case errors.Conflict:
		status = http.StatusConflict
	case errors.Gateway:
		status = http.StatusBadGateway
	case errors.Persistence:
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, body)
}
