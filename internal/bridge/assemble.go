// ABOUTME: Response assembly rewriting citation annotations into numbered footnotes
// ABOUTME: Resolves cited files and appends the citation list to the reply text

package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/2389/seance/internal/backend"
)

// assembleResponse fetches the newest message in the session (the
// assistant's reply) and rewrites its annotations into numbered
// footnotes. Each annotation's source span is replaced at its first
// occurrence by " [i]"; the citation list is appended after a line
// break. Filenames share one occurrence counter across both annotation
// kinds, scoped to this single response.
func (b *Bridge) assembleResponse(ctx context.Context, sessionID string) (string, error) {
	messages, err := b.backend.ListMessages(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if len(messages) == 0 {
		return "", errors.New("session has no messages")
	}

	reply := messages[0]
	text := reply.Text

	if len(reply.Annotations) == 0 {
		b.logger.Warn("assistant reply carries no annotations", "session", sessionID)
	}

	citations := make([]string, 0, len(reply.Annotations))
	occurrences := make(map[string]int)

	for i, ann := range reply.Annotations {
		text = strings.Replace(text, ann.Text, fmt.Sprintf(" [%d]", i), 1)

		if ann.FileID == "" {
			b.logger.Warn("annotation without file reference", "session", sessionID, "index", i)
			continue
		}

		file, err := b.backend.GetFile(ctx, ann.FileID)
		if err != nil {
			b.logger.Warn("failed to resolve cited file", "file_id", ann.FileID, "error", err)
			continue
		}

		occurrences[file.Filename]++
		citations = append(citations, citationLine(i, ann.Kind, file.Filename, occurrences[file.Filename]))
	}

	return text + "\n" + strings.Join(citations, "\n"), nil
}

// citationLine renders one footnote entry. The first citation of a
// filename omits the occurrence count; repeats carry it. Downloadable
// file-path citations get the download phrasing.
func citationLine(index int, kind backend.AnnotationKind, filename string, occurrence int) string {
	var line string
	if kind == backend.AnnotationFilePath {
		line = fmt.Sprintf("[%d] Click <here> to download %s", index, filename)
	} else {
		line = fmt.Sprintf("[%d] %s", index, filename)
	}
	if occurrence > 1 {
		line += fmt.Sprintf(" (%d)", occurrence)
	}
	return line
}
