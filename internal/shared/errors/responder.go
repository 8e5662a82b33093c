package errors

import (
	"errors"

	"github.com/gin-gonic/gin"
)

// ContentTypeProblemJSON is the media type for problem responses.
const ContentTypeProblemJSON = "application/problem+json"

// ErrorMapper turns a service error into a problem. ok is false when the
// mapper does not recognise the error.
type ErrorMapper func(err error) (problem ProblemDetail, ok bool)

// Enricher decorates every problem with request scoped data.
type Enricher func(c *gin.Context, problem ProblemDetail) ProblemDetail

// Responder writes problem documents. Errors go through the mappers in order;
// an error no mapper knows becomes ErrInternal without its message.
type Responder struct {
	baseURI   string
	mappers   []ErrorMapper
	enrichers []Enricher
}

// NewResponder builds a responder. A non-empty baseURI is prefixed to relative problem types.
func NewResponder(baseURI string, mappers ...ErrorMapper) *Responder {
	return &Responder{baseURI: baseURI, mappers: mappers}
}

// WithEnrichers returns a copy of r that applies the enrichers before writing.
func (r *Responder) WithEnrichers(enrichers ...Enricher) *Responder {
	clone := *r
	clone.enrichers = append(append([]Enricher(nil), r.enrichers...), enrichers...)
	return &clone
}

// Problem maps err without writing anything.
func (r *Responder) Problem(err error) ProblemDetail {
	var problem ProblemDetail
	if errors.As(err, &problem) {
		return problem
	}
	for _, mapper := range r.mappers {
		if problem, ok := mapper(err); ok {
			return problem
		}
	}
	return ErrInternal
}

// Respond writes problem with the problem+json content type.
func (r *Responder) Respond(c *gin.Context, problem ProblemDetail) {
	for _, enrich := range r.enrichers {
		problem = enrich(c, problem)
	}
	if r.baseURI != "" && len(problem.Type) > 0 && problem.Type[0] == '/' {
		problem.Type = r.baseURI + problem.Type
	}
	if problem.Instance == "" {
		problem.Instance = c.Request.URL.Path
	}
	c.Header("Content-Type", ContentTypeProblemJSON)
	c.JSON(problem.Status, problem)
}

// RespondError maps err and writes the result. A nil err writes nothing.
func (r *Responder) RespondError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	r.Respond(c, r.Problem(err))
}
