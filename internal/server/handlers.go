package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/karolswdev/jirapro/internal/issuecreate"
	"github.com/karolswdev/jirapro/internal/notice"
)

func (s *Server) listInstances(c *gin.Context) {
	c.JSON(http.StatusOK, s.opts.Issues.SuggestInstance())
}

func (s *Server) authenticatorID(c *gin.Context) {
	id, err := s.opts.Issues.AuthenticatorID(c.Param("instance"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

func suggestions(c *gin.Context, res []issuecreate.Suggestion, err error) {
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// raw relays a Jira body unchanged.
func raw(c *gin.Context, body json.RawMessage, err error) {
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (s *Server) suggestProject(c *gin.Context) {
	res, err := s.opts.Issues.SuggestProject(c.Request.Context(), c.Param("instance"), c.Query("text"))
	suggestions(c, res, err)
}

func (s *Server) suggestIssueType(c *gin.Context) {
	res, err := s.opts.Issues.SuggestIssueType(c.Request.Context(), c.Param("instance"), c.Param("project"), c.Query("text"))
	suggestions(c, res, err)
}

func (s *Server) suggestAssignableUser(c *gin.Context) {
	res, err := s.opts.Issues.SuggestAssignableUser(c.Request.Context(), c.Param("instance"), c.Param("project"), c.Query("text"))
	suggestions(c, res, err)
}

func (s *Server) suggestUser(c *gin.Context) {
	res, err := s.opts.Issues.SuggestUser(c.Request.Context(), c.Param("instance"), c.Query("text"))
	suggestions(c, res, err)
}

func (s *Server) fieldsMetadata(c *gin.Context) {
	body, err := s.opts.Issues.FieldsMetadata(c.Request.Context(), c.Param("instance"), c.Param("project"), c.Param("issuetype"))
	raw(c, body, err)
}

// createIssue accepts the payload as a "data" form value or as the raw request body.
func (s *Server) createIssue(c *gin.Context) {
	var (
		input   string
		pending io.Reader
	)
	if strings.HasPrefix(c.ContentType(), "application/x-www-form-urlencoded") || strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		input = c.PostForm("data")
	} else {
		pending = c.Request.Body
	}
	body, err := s.opts.Issues.CreateIssue(c.Request.Context(), c.Param("instance"), input, pending)
	raw(c, body, err)
}

func (s *Server) decideNotice(c *gin.Context) {
	inline, _ := strconv.ParseBool(c.DefaultQuery("inline", "false"))
	d, err := s.opts.Notices.Decide(c.Request.Context(), notice.Request{
		InstanceID:  c.Param("instance"),
		RedirectURL: c.Query("redirectUrl"),
		Inline:      inline,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
