package cataloging

import "fmt"

// NotFound is the literal the model is told to use for missing fields
const NotFound = "Not found"

// BuildPrompt creates the metadata extraction prompt for a document rendered as pageCount images
func BuildPrompt(pageCount int) string {
	pages := "the first page"
	if pageCount > 1 {
		pages = fmt.Sprintf("the first %d pages", pageCount)
	}

	return fmt.Sprintf(`You are an expert bibliographic metadata cataloger. The attached images are %s of a document (an article, paper, report or book).

INSTRUCTIONS:
1. Find the title. It is usually the most prominent text at the top of the first page.
2. Find the author(s). Look below the title, in a byline, or on a title page. If there are several authors, list all of them in order.
3. Find the year of publication. It may appear in many forms (2015, ©2015, "Published March 2015", a journal citation or a copyright line).
4. If a field cannot be found, use "%s" for it.
5. Do not invent or infer information that is not visible in the images.

OUTPUT FORMAT:
Respond with ONLY a JSON object, no additional text:

{
  "title": "Full title including subtitle",
  "author": ["First Author", "Second Author"],
  "year": "YYYY"
}`, pages, NotFound)
}
