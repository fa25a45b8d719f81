package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type item struct {
	Name string `json:"name" binding:"required"`
}

type payload struct {
	Email string `json:"email" binding:"required,email"`
	Items []item `json:"items" binding:"required,min=1,dive"`
}

func bindBody(t *testing.T, body string) map[string]string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	Setup()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var p payload
	return Bind(c, &p)
}

func TestBind_Valid(t *testing.T) {
	assert.Nil(t, bindBody(t, `{"email":"a@b.co","items":[{"name":"x"}]}`))
}

func TestBind_NestedFieldPath(t *testing.T) {
	fields := bindBody(t, `{"email":"not-an-email","items":[{"name":""}]}`)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "items[0].name")
}

func TestBind_MalformedJSON(t *testing.T) {
	fields := bindBody(t, `{"email":`)
	assert.Contains(t, fields, "detail")
}

func TestBind_WrongType(t *testing.T) {
	fields := bindBody(t, `{"email":"a@b.co","items":"nope"}`)
	assert.Contains(t, fields, "items")
}
