package ai

import (
	"fmt"
	"strings"

	"comment-analyzer/internal/models"
	"comment-analyzer/shared/analysis"
)

var languageNames = map[string]string{
	models.LangEnglish: "English",
	models.LangRussian: "Russian",
}

// BuildPrompt renders the summary prompt. Comments are ordered by likes and
// capped at maxComments (0 means all). It returns the prompt and the number
// of comments included.
func BuildPrompt(video *models.Video, comments []models.Comment, maxComments int, language string) (string, int) {
	top := analysis.SelectPopularComments(comments, maxComments)

	var b strings.Builder
	b.WriteString("Write a detailed analysis of a YouTube video based on its viewers' comments.\n\n")
	fmt.Fprintf(&b, "VIDEO: %s | Channel: %s | Views: %d | Likes: %d\n\n",
		video.Title, video.ChannelTitle, video.ViewCount, video.LikeCount)

	if len(top) == 0 {
		b.WriteString("The video has no comments.\n\n")
	} else {
		b.WriteString("COMMENTS:\n\n")
		for i, c := range top {
			author := c.Author
			if author == "" {
				author = "Anonymous"
			}
			fmt.Fprintf(&b, "%d. %s (%d likes):\n%s\n\n", i+1, author, c.LikeCount, analysis.PlainText(c.Text))
		}
	}

	b.WriteString(`Produce a COMPLETE and DETAILED report covering every aspect of the audience reaction, using exactly these sections:

## Audience reaction

### Positive feedback
[What viewers praise, with concrete examples from the comments]

### Main problems
[Every complaint and problem viewers mention]

### Technical notes
[Technical issues and remarks raised by viewers]

### Recommendations
[Specific, actionable recommendations for improving the content]

### Growth opportunities
[Ideas for growing the channel and improving future videos]

### Conclusions
[Overall conclusions about the audience reaction]

Use every available comment and do not shorten the answer.`)

	if name, ok := languageNames[language]; ok {
		fmt.Fprintf(&b, " Write the report in %s.", name)
	} else {
		b.WriteString(" Write the report in the language most of the comments use.")
	}

	return b.String(), len(top)
}
