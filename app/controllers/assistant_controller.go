package controllers

import (
	"net/http"

	"github.com/poppys-produce/backend/app/services"
	"github.com/poppys-produce/backend/pkg/bind"
	"github.com/poppys-produce/backend/pkg/middleware"
	"github.com/poppys-produce/backend/pkg/response"
)

type AssistantController struct {
	assistant *services.AssistantService
}

func NewAssistantController(assistant *services.AssistantService) *AssistantController {
	return &AssistantController{assistant: assistant}
}

func (c *AssistantController) Ask(w http.ResponseWriter, r *http.Request) {
	caller, _ := middleware.IdentityFromCtx(r.Context())

	var in services.AskInput
	errs, err := bind.JSON(r, &in)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	text, err := c.assistant.Ask(r.Context(), caller, in)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, map[string]string{"response": text})
}
