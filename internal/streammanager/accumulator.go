package streammanager

import "mux/internal/workspace"

// accumulator builds the growing assistant message's Parts as provider
// events arrive. Consecutive text or reasoning deltas merge into one
// open part; a tool-call event always starts a new part, closing whatever
// text/reasoning part was open.
type accumulator struct {
	parts         []workspace.Part
	openTextIdx   int
	openReasonIdx int
}

func newAccumulator() *accumulator {
	return &accumulator{openTextIdx: -1, openReasonIdx: -1}
}

func (a *accumulator) addText(delta string) {
	if a.openTextIdx < 0 {
		a.parts = append(a.parts, workspace.Part{Kind: workspace.PartText})
		a.openTextIdx = len(a.parts) - 1
		a.openReasonIdx = -1
	}
	a.parts[a.openTextIdx].Text += delta
}

func (a *accumulator) addReasoning(delta string) {
	if a.openReasonIdx < 0 {
		a.parts = append(a.parts, workspace.Part{Kind: workspace.PartReasoning})
		a.openReasonIdx = len(a.parts) - 1
		a.openTextIdx = -1
	}
	a.parts[a.openReasonIdx].Reasoning += delta
}

func (a *accumulator) toolCallStart(id, name string, args map[string]interface{}) {
	a.parts = append(a.parts, workspace.Part{
		Kind:       workspace.PartToolCall,
		ToolCallID: id,
		ToolName:   name,
		Input:      args,
		State:      workspace.ToolCallInputAvailable,
	})
	a.openTextIdx = -1
	a.openReasonIdx = -1
}

func (a *accumulator) toolCallEnd(id string, result interface{}, isError bool, errMsg string) {
	for i := range a.parts {
		if a.parts[i].Kind == workspace.PartToolCall && a.parts[i].ToolCallID == id {
			if isError {
				a.parts[i].State = workspace.ToolCallError
				a.parts[i].Error = errMsg
			} else {
				a.parts[i].State = workspace.ToolCallOutputAvailable
				a.parts[i].Result = result
			}
			return
		}
	}
}
