package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veridex/faceline/internal/bankload"
	"github.com/veridex/faceline/internal/corerr"
	"github.com/veridex/faceline/internal/replay"
	"github.com/veridex/faceline/pkg/bank"
)

// statusForError maps a core error code to an HTTP status. Unrecognized
// errors (including non-*corerr.Error values) fall back to 500.
func statusForError(err error) int {
	var code corerr.Code
	if ce, ok := err.(*corerr.Error); ok {
		code = ce.Code
	}
	switch code {
	case corerr.ESessionNotFound, corerr.EQuestionNotFound:
		return http.StatusNotFound
	case corerr.EInvalidSessionSeed, corerr.EPickCount, corerr.EInvalidFamily,
		corerr.EDuplicateFamily, corerr.EBadQID, corerr.EInvalidOption:
		return http.StatusBadRequest
	case corerr.EStateTransitionInvalid, corerr.EState, corerr.ESessionAlreadyFinalized,
		corerr.EQuizComplete, corerr.EIncompleteQuiz, corerr.EAnswerOutOfOrder:
		return http.StatusConflict
	case corerr.EBankDefect, corerr.EBankNotFound, corerr.EBankCorrupted,
		corerr.EBankSignatureInvalid, corerr.EBankVersionMismatch:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func errJSON(c *gin.Context, err error) {
	status := statusForError(err)
	body := gin.H{"error": err.Error()}
	if ce, ok := err.(*corerr.Error); ok {
		body["code"] = string(ce.Code)
	}
	c.JSON(status, body)
}

// POST /api/v1/banks
// Registers a bank artifact, returning its bank hash. The artifact is loaded
// with an empty bankload.Config, so its canonical hash is checked but its
// HMAC signature is not.
func (h *APIHandler) handleLoadBank(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	pkg, err := h.engine.LoadBank(raw, bankload.Config{})
	if err != nil {
		errJSON(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"bankId":           pkg.Meta().BankID,
		"bankHash":         pkg.Meta().BankHash,
		"constantsProfile": pkg.Meta().ConstantsProfile,
	})
}

// POST /api/v1/sessions
// Starts a new session bound to a previously loaded bank.
func (h *APIHandler) handleCreateSession(c *gin.Context) {
	var req struct {
		SessionSeed string `json:"sessionSeed" binding:"required"`
		BankHash    string `json:"bankHash" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	rec, err := h.engine.InitSession(req.SessionSeed, req.BankHash)
	if err != nil {
		errJSON(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"sessionId": rec.SessionID,
		"state":     rec.State,
	})
}

// GET /api/v1/sessions/:id
func (h *APIHandler) handleGetSession(c *gin.Context) {
	rec, err := h.engine.Sessions.Get(c.Param("id"))
	if err != nil {
		errJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sessionId":        rec.SessionID,
		"state":            rec.State,
		"bankHash":         rec.BankHash,
		"constantsProfile": rec.ConstantsProfile,
		"answered":         len(rec.Answers),
		"scheduled":        len(rec.Schedule),
	})
}

// POST /api/v1/sessions/:id/picks
func (h *APIHandler) handleSetPicks(c *gin.Context) {
	var req struct {
		Picks []bank.Family `json:"picks" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	summary, err := h.engine.SetPicks(c.Param("id"), req.Picks)
	if err != nil {
		errJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"totalQuestions": summary.Total})
}

// GET /api/v1/sessions/:id/next
func (h *APIHandler) handleNextQuestion(c *gin.Context) {
	qv, err := h.engine.NextQuestion(c.Param("id"))
	if err != nil {
		if corerr.Is(err, corerr.EQuizComplete) {
			c.JSON(http.StatusOK, gin.H{"done": true})
			return
		}
		errJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"done":    false,
		"qid":     qv.QID,
		"family":  qv.Family,
		"slot":    qv.Slot,
		"options": qv.Options,
		"index":   qv.Index,
		"total":   qv.Total,
	})
}

// POST /api/v1/sessions/:id/answers
func (h *APIHandler) handleSubmitAnswer(c *gin.Context) {
	var req struct {
		QID       bank.QID `json:"qid" binding:"required"`
		OptionKey string   `json:"optionKey" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	res, err := h.engine.SubmitAnswer(c.Param("id"), req.QID, req.OptionKey)
	if err != nil {
		errJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accepted":     res.Accepted,
		"answersCount": res.AnswersCount,
		"remaining":    res.Remaining,
		"idempotent":   res.Idempotent,
	})
}

// POST /api/v1/sessions/:id/finalize
func (h *APIHandler) handleFinalize(c *gin.Context) {
	snap, err := h.engine.Finalize(c.Param("id"))
	if err != nil {
		errJSON(c, err)
		return
	}
	if h.dbStore != nil {
		if err := h.dbStore.SaveSnapshot(c.Request.Context(), c.Param("id"), snap); err != nil {
			logSaveSnapshotFailure(err)
		}
	}
	c.JSON(http.StatusOK, snap)
}

// POST /api/v1/sessions/:id/abort
func (h *APIHandler) handleAbort(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	if err := h.engine.Abort(c.Param("id"), req.Reason); err != nil {
		errJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "aborted"})
}

// POST /api/v1/sessions/:id/pause
func (h *APIHandler) handlePause(c *gin.Context) {
	if err := h.engine.Pause(c.Param("id")); err != nil {
		errJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "paused"})
}

// POST /api/v1/sessions/:id/resume
func (h *APIHandler) handleResume(c *gin.Context) {
	if err := h.engine.Resume(c.Param("id")); err != nil {
		errJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "resumed"})
}

// POST /api/v1/replay
// Reconstructs a session from a replay descriptor and reports whether it
// reproduces the expected outcome.
func (h *APIHandler) handleReplay(c *gin.Context) {
	var req struct {
		Descriptor   replay.Descriptor `json:"descriptor" binding:"required"`
		ExpectedHash string            `json:"expectedHash"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	result, err := h.engine.ReplaySession(req.Descriptor, req.ExpectedHash, nil)
	if err != nil {
		errJSON(c, err)
		return
	}

	if h.dbStore != nil {
		if err := h.dbStore.SaveReplayResult(c.Request.Context(), req.Descriptor, result); err != nil {
			logSaveReplayFailure(err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"verdict":  result.Verdict,
		"snapshot": result.Snapshot,
		"diff":     result.Diff,
	})
}

// GET /api/v1/replay/audits
func (h *APIHandler) handleListReplayAudits(c *gin.Context) {
	if h.dbStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database not connected"})
		return
	}
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 50)

	audits, total, err := h.dbStore.ListReplayAudits(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list replay audits", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":       audits,
		"totalCount": total,
		"page":       page,
		"limit":      limit,
	})
}
