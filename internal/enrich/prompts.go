package enrich

import (
	"fmt"
	"strings"
)

// System prompts for each generative request.
const (
	ClassifySystemPrompt  = "You are a podcast classification assistant."
	LabelSystemPrompt     = "You are a transcript labeling assistant."
	SummarizeSystemPrompt = "You are an AI assistant specialized in analyzing data analytics and business intelligence podcasts."
)

// ClassificationPrompt asks for one primary and several secondary tags for
// title, restricted to the taxonomy.
func ClassificationPrompt(title string, taxonomy *Taxonomy) string {
	var b strings.Builder
	b.WriteString("Classify the following podcast episode title into the most relevant category and provide additional tags.\n")
	b.WriteString("Use only the categories and tags provided below. Choose one primary tag and multiple secondary tags if applicable.\n\n")
	fmt.Fprintf(&b, "Title: %s\n\n", title)
	b.WriteString("Categories and Tags:\n")
	b.WriteString(taxonomy.Render())
	b.WriteString("\n\nOutput format:\n")
	b.WriteString("Primary Tag: [Single most relevant tag]\n")
	b.WriteString("Secondary Tags: [Comma-separated list of additional relevant tags]\n")
	return b.String()
}

// LabelPrompt asks for speaker labels on window index (zero-based) of total.
func LabelPrompt(host, guest string, index, total int, window string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Label the following chunk of podcast transcript with speaker names. The host is %s, and the guest is %s.\n", host, guest)
	b.WriteString("Format the output as:\n\n")
	fmt.Fprintf(&b, "%s: [Speaker's words]\n", host)
	fmt.Fprintf(&b, "%s: [Speaker's words]\n\n", guest)
	b.WriteString("Use your understanding of conversation flow and context to accurately label each part of the dialogue.\n")
	b.WriteString("If you're unsure about a speaker, use your best judgment based on the content and style of speech.\n\n")
	fmt.Fprintf(&b, "This is chunk %d of %d. Maintain consistency with previous chunks if applicable.\n\n", index+1, total)
	b.WriteString("Transcript chunk:\n")
	b.WriteString(window)
	b.WriteString("\n")
	return b.String()
}

// SummaryPrompt asks for a summary, three key insights and two or three
// quotes attributed to guest.
func SummaryPrompt(transcript, guest string) string {
	var b strings.Builder
	b.WriteString("Analyze the following podcast transcript and provide a summary of the key insights, opinions, and analytics industry trends discussed. ")
	fmt.Fprintf(&b, "Also, identify and quote 2-3 insightful or interesting statements made by the guest speaker, %s.\n\n", guest)
	b.WriteString("Format your response as follows:\n")
	b.WriteString("Summary: [A concise summary of the main points discussed in the podcast, focusing on insights, opinions, and industry trends]\n\n")
	b.WriteString("Key Insights:\n")
	b.WriteString("1. [First key insight or trend]\n")
	b.WriteString("2. [Second key insight or trend]\n")
	b.WriteString("3. [Third key insight or trend]\n\n")
	b.WriteString("Notable Quotes:\n")
	fmt.Fprintf(&b, "1. \"{First quote}\" - %s\n", guest)
	fmt.Fprintf(&b, "2. \"{Second quote}\" - %s\n", guest)
	fmt.Fprintf(&b, "3. \"{Third quote}\" - %s (if available)\n\n", guest)
	b.WriteString("Transcript:\n")
	b.WriteString(transcript)
	b.WriteString("\n")
	return b.String()
}
