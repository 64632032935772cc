package scraper

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-scrape-timetable/models"
	"golang.org/x/net/html"
)

const (
	// missingField stands in for a gender or department the listing leaves blank.
	missingField = "空"

	scheduledMarker = "已排课"
)

// ParseTeacherDirectory extracts one teacher per link of the schedule listing.
// Gender and department come from the third and fourth cells of the link's
// table row; when the link's cell has no row, the two cells following it in
// document order are used instead.
func ParseTeacherDirectory(doc *goquery.Document, base *url.URL) []models.Teacher {
	allCells := doc.Find("td")
	var teachers []models.Teacher

	doc.Find("a[href]").Each(func(i int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		teacher := models.Teacher{
			Seq:        i + 1,
			Name:       cellText(a),
			Gender:     missingField,
			Department: missingField,
			URL:        resolveLink(base, href),
		}

		cell := a.Closest("td")
		if cell.Length() == 0 {
			teachers = append(teachers, teacher)
			return
		}

		if row := cell.Closest("tr"); row.Length() > 0 {
			tds := row.Find("td")
			if tds.Length() > 2 {
				teacher.Gender = fieldOrMissing(tds.Eq(2))
			}
			if tds.Length() > 3 {
				teacher.Department = fieldOrMissing(tds.Eq(3))
			}
		} else if idx := allCells.IndexOfSelection(cell); idx >= 0 {
			if idx+1 < allCells.Length() {
				teacher.Gender = fieldOrMissing(allCells.Eq(idx + 1))
			}
			if idx+2 < allCells.Length() {
				teacher.Department = fieldOrMissing(allCells.Eq(idx + 2))
			}
		}

		teachers = append(teachers, teacher)
	})

	return teachers
}

// ParseSchedulePage returns the data rows of the table that follows the
// "已排课" heading. The header row and rows holding a spanning placeholder
// cell are skipped. Cells are returned as found; callers pad them.
func ParseSchedulePage(doc *goquery.Document) [][]string {
	table := scheduledTable(doc)
	if table == nil {
		return nil
	}

	var rows [][]string
	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		if i == 0 {
			return
		}
		if tr.Find("td[colspan]").Length() > 0 {
			return
		}
		cells := tr.Find("td, th")
		if cells.Length() == 0 {
			return
		}
		row := make([]string, 0, cells.Length())
		cells.Each(func(_ int, cell *goquery.Selection) {
			row = append(row, cellText(cell))
		})
		rows = append(rows, row)
	})
	return rows
}

// hasScheduledHeading reports whether doc carries the scheduled-lessons
// heading. Teacher pages always render it, even with no lessons.
func hasScheduledHeading(doc *goquery.Document) bool {
	return doc.Find("span").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return cellText(s) == scheduledMarker
	}).Length() > 0
}

func hasLoginForm(doc *goquery.Document) bool {
	return doc.Find(`input[type="password"]`).Length() > 0
}

// scheduledTable finds the first table after the scheduled-lessons heading in
// document order.
func scheduledTable(doc *goquery.Document) *goquery.Selection {
	var (
		seen  bool
		table *goquery.Selection
	)
	doc.Find("span, table").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !seen {
			if goquery.NodeName(s) == "span" && cellText(s) == scheduledMarker {
				seen = true
			}
			return true
		}
		if goquery.NodeName(s) == "table" {
			table = s
			return false
		}
		return true
	})
	return table
}

// cellText concatenates the trimmed text nodes under s.
func cellText(s *goquery.Selection) string {
	var b strings.Builder
	for _, n := range s.Nodes {
		collectText(&b, n)
	}
	return b.String()
}

func collectText(b *strings.Builder, n *html.Node) {
	if n.Type == html.TextNode {
		b.WriteString(strings.TrimSpace(n.Data))
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
}

func fieldOrMissing(s *goquery.Selection) string {
	if text := cellText(s); text != "" {
		return text
	}
	return missingField
}

func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
