package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/mdb-curator/internal/domain/vocab"
	"github.com/yungbote/mdb-curator/internal/http/response"
	"github.com/yungbote/mdb-curator/internal/modules/curation"
	"github.com/yungbote/mdb-curator/internal/modules/review"
	"github.com/yungbote/mdb-curator/internal/services"
)

// maxReviewFileBytes bounds an uploaded review file.
const maxReviewFileBytes = 8 << 20

type CurationHandler struct {
	curation services.CurationService
}

func NewCurationHandler(curation services.CurationService) *CurationHandler {
	return &CurationHandler{curation: curation}
}

type linkTermsRequest struct {
	A vocab.Term `json:"a"`
	B vocab.Term `json:"b"`
}

// POST /api/terms/link
func (h *CurationHandler) LinkTerms(c *gin.Context) {
	var req linkTermsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	out, err := h.curation.LinkTerms(c.Request.Context(), req.A, req.B)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"outcome": out})
}

type mergeConceptsRequest struct {
	Survivor string `json:"survivor"`
	Absorbed string `json:"absorbed"`
}

// POST /api/concepts/merge
func (h *CurationHandler) MergeConcepts(c *gin.Context) {
	var req mergeConceptsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	out, err := h.curation.MergeConcepts(c.Request.Context(),
		vocab.Concept{NanoID: req.Survivor},
		vocab.Concept{NanoID: req.Absorbed},
	)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"outcome": out})
}

type relateConceptsRequest struct {
	Subject string       `json:"subject"`
	Object  string       `json:"object"`
	Handle  vocab.Handle `json:"handle"`
}

// POST /api/concepts/relate
func (h *CurationHandler) RelateConcepts(c *gin.Context) {
	var req relateConceptsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	handle := req.Handle
	if strings.TrimSpace(string(handle)) == "" {
		handle = vocab.HandleExactMatch
	}
	p, err := h.curation.RelateConcepts(c.Request.Context(),
		vocab.Concept{NanoID: req.Subject},
		vocab.Concept{NanoID: req.Object},
		handle,
	)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"predicate": p})
}

// GET /api/terms/synonyms?value=&origin_name=&threshold=&format=csv
func (h *CurationHandler) FindSynonyms(c *gin.Context) {
	target := termFromQuery(c)
	threshold := h.curation.DefaultThreshold()
	if raw := strings.TrimSpace(c.Query("threshold")); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err == nil && !curation.ValidThreshold(f) {
			err = fmt.Errorf("threshold %q outside [0,1]", raw)
		}
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_threshold", err)
			return
		}
		threshold = f
	}

	cands, err := h.curation.FindSynonyms(c.Request.Context(), target, threshold)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}

	if strings.EqualFold(c.Query("format"), "csv") {
		var buf bytes.Buffer
		if err := review.ExportCandidates(&buf, cands); err != nil {
			response.RespondError(c, http.StatusInternalServerError, "export_failed", err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, reviewFileName(target)))
		c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
		return
	}
	if cands == nil {
		cands = []vocab.Candidate{}
	}
	response.RespondOK(c, gin.H{"target": target, "threshold": threshold, "candidates": cands})
}

// POST /api/terms/synonyms/confirm?value=&origin_name=
// Body is the review file, raw or as multipart field "file".
func (h *CurationHandler) ConfirmSynonyms(c *gin.Context) {
	target := termFromQuery(c)
	if err := target.Validate(); err != nil {
		response.RespondDomainError(c, err)
		return
	}

	body, err := reviewBody(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_review_file", err)
		return
	}
	defer body.Close()

	confirmed, err := review.ImportConfirmed(body)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_review_file", err)
		return
	}
	results, err := h.curation.LinkConfirmed(c.Request.Context(), target, confirmed)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	status := http.StatusOK
	if failed > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, gin.H{"target": target, "results": results, "failed": failed})
}

// GET /api/terms/concepts?value=&origin_name=
func (h *CurationHandler) ConceptsOfTerm(c *gin.Context) {
	term := termFromQuery(c)
	concepts, err := h.curation.ConceptsOf(c.Request.Context(), term)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"term": term, "concepts": concepts})
}

// GET /api/concepts/:nanoid/terms
func (h *CurationHandler) TermsOfConcept(c *gin.Context) {
	concept := vocab.Concept{NanoID: c.Param("nanoid")}
	terms, err := h.curation.TermsOf(c.Request.Context(), concept)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"concept": concept, "terms": terms})
}

// GET /api/concepts/:nanoid/predicates
func (h *CurationHandler) PredicatesOfConcept(c *gin.Context) {
	concept := vocab.Concept{NanoID: c.Param("nanoid")}
	edges, err := h.curation.PredicatesOf(c.Request.Context(), concept)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"concept": concept, "predicates": edges})
}

// GET /api/predicates/:nanoid
func (h *CurationHandler) DescribePredicate(c *gin.Context) {
	detail, err := h.curation.DescribePredicate(c.Request.Context(), vocab.Predicate{NanoID: c.Param("nanoid")})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, detail)
}

// DELETE /api/terms?value=&origin_name=
func (h *CurationHandler) DeleteTerm(c *gin.Context) {
	term := termFromQuery(c)
	if err := h.curation.DeleteTerm(c.Request.Context(), term); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": term})
}

// DELETE /api/concepts/:nanoid
func (h *CurationHandler) DeleteConcept(c *gin.Context) {
	concept := vocab.Concept{NanoID: c.Param("nanoid")}
	if err := h.curation.DeleteConcept(c.Request.Context(), concept); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": concept})
}

// DELETE /api/predicates/:nanoid
func (h *CurationHandler) DeletePredicate(c *gin.Context) {
	nanoid := c.Param("nanoid")
	if err := h.curation.DeletePredicate(c.Request.Context(), vocab.Predicate{NanoID: nanoid}); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": gin.H{"nanoid": nanoid}})
}

func termFromQuery(c *gin.Context) vocab.Term {
	return vocab.Term{
		Value:      c.Query("value"),
		OriginName: c.Query("origin_name"),
	}
}

func reviewBody(c *gin.Context) (io.ReadCloser, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxReviewFileBytes)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("multipart field %q: %w", "file", err)
		}
		return fh.Open()
	}
	return c.Request.Body, nil
}

func reviewFileName(t vocab.Term) string {
	clean := func(s string) string {
		return strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
				return r
			}
			return '_'
		}, s)
	}
	return fmt.Sprintf("synonyms_%s_%s.csv", clean(t.Value), clean(t.OriginName))
}
