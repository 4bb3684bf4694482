package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	appbilling "github.com/rdietscht/ACME-NextJS-Tutorial/internal/application/billing"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/domain/billing"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/interfaces/http/dto"
)

// InvoiceHandler serves the invoice listing and the invoice form actions
type InvoiceHandler struct {
	BaseHandler
	invoices *appbilling.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoices *appbilling.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// List godoc
// @Summary      List invoices
// @Description  Newest first, filtered by customer, amount, date or status
// @Tags         invoices
// @Produce      json
// @Param        query     query  string  false  "Search text"
// @Param        page      query  int     false  "Page number"
// @Param        page_size query  int     false  "Page size"
// @Success      200 {object} dto.Response{data=[]InvoiceResponse}
// @Router       /dashboard/invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	var q ListInvoicesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	filter := billing.InvoiceFilter{Query: q.Query, Page: q.Page, PageSize: q.PageSize}
	list, err := h.invoices.ListInvoices(c.Request.Context(), filter)
	if err != nil {
		h.InternalError(c, "Database Error: Failed to fetch invoices.")
		return
	}

	h.SuccessWithMeta(c, ToInvoiceResponses(list.Invoices), max(q.Page, 1), filter.Limit(), list.TotalPages)
}

// Get godoc
// @Summary      Get invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID"
// @Success      200 {object} dto.Response{data=InvoiceResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /dashboard/invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	view, err := h.invoices.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ToInvoiceResponse(*view))
}

// Create godoc
// @Summary      Create invoice
// @Description  Accepts a form post or JSON. Form posts are redirected with 303 on success.
// @Tags         invoices
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Success      200 {object} appbilling.State
// @Success      303
// @Failure      422 {object} appbilling.State
// @Failure      500 {object} appbilling.State
// @Router       /dashboard/invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	form, ok := h.bindForm(c)
	if !ok {
		return
	}
	h.respondState(c, h.invoices.CreateInvoice(c.Request.Context(), form))
}

// Update godoc
// @Summary      Update invoice
// @Tags         invoices
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        id path string true "Invoice ID"
// @Success      200 {object} appbilling.State
// @Success      303
// @Failure      422 {object} appbilling.State
// @Failure      500 {object} appbilling.State
// @Router       /dashboard/invoices/{id} [put]
func (h *InvoiceHandler) Update(c *gin.Context) {
	form, ok := h.bindForm(c)
	if !ok {
		return
	}
	h.respondState(c, h.invoices.UpdateInvoice(c.Request.Context(), c.Param("id"), form))
}

// Delete godoc
// @Summary      Delete invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID"
// @Success      200 {object} appbilling.State
// @Failure      500 {object} appbilling.State
// @Router       /dashboard/invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *gin.Context) {
	h.respondState(c, h.invoices.DeleteInvoice(c.Request.Context(), c.Param("id")))
}

func (h *InvoiceHandler) bindForm(c *gin.Context) (appbilling.InvoiceForm, bool) {
	var form appbilling.InvoiceForm
	var err error
	if isJSONRequest(c) {
		err = c.ShouldBindJSON(&form)
	} else {
		err = c.ShouldBindWith(&form, binding.Form)
	}
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Invalid request body")
		return form, false
	}
	return form, true
}

// respondState projects a mutation State onto the response. Browsers
// posting a form follow a 303 to the redirect target; JSON clients
// receive the target in the body.
func (h *InvoiceHandler) respondState(c *gin.Context, state appbilling.State) {
	switch {
	case state.IsFieldError():
		c.JSON(http.StatusUnprocessableEntity, state)
	case state.IsFailure():
		c.JSON(http.StatusInternalServerError, state)
	case state.RedirectTo != "" && !wantsJSON(c):
		c.Redirect(http.StatusSeeOther, state.RedirectTo)
	default:
		c.JSON(http.StatusOK, state)
	}
}

func isJSONRequest(c *gin.Context) bool {
	return c.ContentType() == binding.MIMEJSON
}

func wantsJSON(c *gin.Context) bool {
	return isJSONRequest(c) || strings.Contains(c.GetHeader("Accept"), binding.MIMEJSON)
}
