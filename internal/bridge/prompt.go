package bridge

import (
	"fmt"
	"strings"

	"github.com/axonhq/axon/pkg/models"
)

// completionContract tells the agent how to signal task state. The sentinel
// decouples "the process ended" from "the task is done".
const completionContract = `When the task is fully done, output exactly [[AXON_STATUS:COMPLETED]] on its own line.
If you cannot proceed after reasonable retries, output [[AXON_STATUS:FAILED:<short reason>]] instead.
Do not output either marker for partial progress.`

// BuildPrompt composes the text handed to the coding agent: bead
// instruction, supporting reference material, and the completion contract.
func BuildPrompt(bead *models.Bead, skillsContext string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Task: %s\n\n", bead.Title)
	if bead.Description != "" {
		b.WriteString(bead.Description)
		b.WriteString("\n\n")
	}
	b.WriteString("## Instruction\n\n")
	b.WriteString(bead.Instruction)
	b.WriteString("\n")

	if skillsContext != "" {
		b.WriteString("\n## Reference material\n\n")
		b.WriteString(skillsContext)
		b.WriteString("\n")
	}

	b.WriteString("\n## Completion contract\n\n")
	b.WriteString(completionContract)
	b.WriteString("\n")

	return b.String()
}
