package api

// GJSON paths into the completion reply and the decoded content document
const (
	PathContent    = "choices.0.message.content"
	PathModel      = "model"
	PathCells      = "cells"
	PathResponse   = "response"
	PathFinish     = "choices.0.finish_reason"
	PathErrMessage = "error.message"
)
