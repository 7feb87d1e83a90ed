package biz

import (
	"fmt"
	"strings"

	"github.com/zakon-kg/lawrag/internal/lawrag/store"
	"github.com/zakon-kg/lawrag/pkg/utils/json"
)

// System instructions sent with every LLM call.
const (
	legalAssistantInstruction = "You are a legal assistant who helps people understand laws. " +
		"Respond in the language of the context."

	dataExtractionInstruction = "You are an expert in extracting structured data. " +
		"You will be given unstructured text from a legal document, " +
		"and you must break it into items/paragraphs. " +
		"Place the result into the specified structure. " +
		"Respond in the language of the context."
)

// questionsSchema constrains query expansion output.
var questionsSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"questions": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {"question": {"type": "string"}},
				"required": ["question"],
				"additionalProperties": false
			}
		}
	},
	"required": ["questions"],
	"additionalProperties": false
}`)

// pointsSchema constrains document extraction output.
var pointsSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"points": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {"paragraph": {"type": "string"}},
				"required": ["paragraph"],
				"additionalProperties": false
			}
		}
	},
	"required": ["points"],
	"additionalProperties": false
}`)

// questionsPrompt builds the query expansion prompt for the given language.
func questionsPrompt(userQuery string, lang store.Language) string {
	if lang == store.LanguageKG {
		return fmt.Sprintf("Колдонуучунун суроосунун негизинде Кыргызстан мыйзамдары боюнча RAG маалымат базасынан тиешелүү беренелерди алуу үчүн суроо-талаптардын тизмесин түз.\n\nСуроо: %s", userQuery)
	}
	return fmt.Sprintf("На основе вопроса пользователя составь список запросов по RAG базе данных с законами, чтобы получить релевантные статьи по законам Кыргызстана.\n\nВопрос: %s", userQuery)
}

// responsePrompt builds the answer synthesis prompt for the given language.
func responsePrompt(userQuery, context string, lang store.Language) string {
	if lang == store.LanguageKG {
		return fmt.Sprintf("Төмөндө берілген мыйзамдын тиешелүү беренелеринин негизинде колдонуучунун суроосуна жооп бер.\n\nСуроо: %s\n\nТиешелүү беренелер:\n%s\n\nСураныч, так беренелерге шилтеме берүү менен кеңири жооп бер.", userQuery, context)
	}
	return fmt.Sprintf("На основе следующих релевантных статей закона, ответь на вопрос пользователя.\n\nВопрос: %s\n\nРелевантные статьи:\n%s\n\nПожалуйста, дай подробный ответ, ссылаясь на конкретные статьи.", userQuery, context)
}

// defaultDocumentQuery is used when a document request carries no query.
func defaultDocumentQuery(lang store.Language) string {
	if lang == store.LanguageKG {
		return "Бул документти талдап, мыйзамдарга шайкештигин текшериңиз."
	}
	return "Проанализируй этот документ и проверь его на соответствие законодательству."
}

// concatQueryAndDoc combines the user query with extracted document content
// into a single input for expansion and synthesis.
func concatQueryAndDoc(query string, paragraphs []string) string {
	return fmt.Sprintf("Question: %s\n\nDocument:\n%s", query, strings.Join(paragraphs, "\n"))
}

// citationsHeader is the heading of search-mode output.
func citationsHeader(lang store.Language) string {
	if lang == store.LanguageKG {
		return "Табылган беренелер:"
	}
	return "Найденные статьи:"
}
