package tasks

import "fmt"

const summarizePrompt = `
You are an expert summarizer. Summarize the following text in 1-2 sentences:
Text: %s
`

const draftEmailPrompt = `
You are a helpful assistant tasked with drafting a concise and professional
email reply based on the provided email: %s.
Your objective is to create an accurate and polished response efficiently.
Ensure the tone remains professional and conclude the email with the signature, '%s'.
`

const sentimentPrompt = `
You are a helpful assistant tasked with analyzing the sentiment of the following text: %s.
Your objective is to state the sentiment in plain words and then give a rating from 1 to 10, with 1
being totally bad to 10 being totally good. Additionally, you will give an assessment on the urgency
of the text in question in the same fashion, with 10 being ASAP and 1 being whenever. Output only the
following JSON object. Do not wrap it in code fences or add any extra text:
{
"sentiment": {
    "label": "<positive|negative|neutral>",
    "analysis": "<It is … because …>",
    "score": <integer 1–10>
},
"urgency": {
    "label": "<ASAP|soon|whenever>",
    "analysis": "<It is … because …>",
    "score": <integer 1–10>
}
}
`

const therapyPrompt = `
You are a sketchy corporate therapist tasked with getting the user back to work.  The user sent
you this message: %s.  Your objective is to increase their productivity, but don't tell
them that! Remember, the company comes first, their happiness comes second.  Consider adding subtle
clues that your intentions are not pure.  Don't prompt for a response, simply give them a solution.
`

func SummarizePrompt(text string) string {
	return fmt.Sprintf(summarizePrompt, text)
}

func DraftEmailPrompt(text, signature string) string {
	return fmt.Sprintf(draftEmailPrompt, text, signature)
}

func SentimentPrompt(text string) string {
	return fmt.Sprintf(sentimentPrompt, text)
}

func TherapyPrompt(text string) string {
	return fmt.Sprintf(therapyPrompt, text)
}
