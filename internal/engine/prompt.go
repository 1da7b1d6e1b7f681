package engine

// LLM prompt templates — data only, no logic.

// classifyPrompt assigns one category per episode in a batch.
// Args: vocabulary guidance section, episode list.
const classifyPrompt = `You are organizing a podcast library into a small, stable set of topical categories.

Assign exactly one category to each episode below.

Respond with valid JSON only (no markdown, no ` + "`" + `json` + "`" + ` block):
{
  "categories": [
    {"id": "<episode id>", "category": "<category name>"}
  ]
}

Rules:
- One entry per episode, in any order, using the exact episode ids given
- Category names: 1-4 words, specific and descriptive (e.g. "Tech & AI", "Mental Health", "Modern History")
- Avoid catch-all names like "Other" or "General"
%s
Episodes:
%s`

// classifyReuseGuidance is injected while the vocabulary still has room
// for new labels.
const classifyReuseGuidance = `- These categories are already in use: %s
- If an existing category fits an episode, reuse it EXACTLY as written — consistency beats novelty
- Only propose a new category when none of the existing ones fits`

// classifyStrictGuidance replaces the reuse guidance once the
// vocabulary is full.
const classifyStrictGuidance = `- You MUST pick every category from this closed list, exactly as written: %s
- Do not invent new categories; choose the closest match from the list`

// answerPrompt answers a question from the stored catalog only.
// Args: current date, catalog context, question.
const answerPrompt = `You are a podcast library assistant. Answer the question using ONLY the episode catalog below.

Current date: %s

Rules:
- Use only facts present in the catalog; do NOT rely on outside knowledge
- If the catalog does not contain the information, say so plainly instead of guessing
- The catalog may be a partial, most-recent slice of the library
- Answer in the SAME LANGUAGE as the question, in plain text without markdown

Catalog:
%s

Question: %s`

// noDataAnswer short-circuits Q&A on an empty catalog: the model is
// never called when there is nothing to ground an answer in.
const noDataAnswer = "The local catalog has no episodes yet. Run a sync first, then ask again."
