package inference

// extractPrompt asks the model for a partner field schema given flattened
// sample records. The output shape matches FieldDocument.
const extractPrompt = `You are an expert at extracting structured field schemas from partner data samples (CSV, JSON, XML, or plain text).
You will be given sample_records and a file_url path. Use sample_records for concrete examples.
Do NOT produce any commentary. Return STRICT valid JSON ONLY that matches the shape below.

Rules and normalization:
1. Field names in sample_records are already flattened to dotted paths; keep them dotted.
2. partner_field must be trimmed of BOM and null characters. Replace spaces and underscores with dots.
3. inferred_type must be one of ["string","number","integer","boolean","datetime","object","array","null"].
4. Provide example_value (first non-empty example), short_description (one short phrase), and confidence 0.0-1.0.

Return JSON with exact shape:
{
  "partner_name": "<partner_name>",
  "transport": "<transport>",
  "source": {"file_url": "<file_url or empty>"},
  "fields": [
    {
      "partner_field": "<string>",
      "inferred_type": "<string>",
      "example_value": <string|number|null>,
      "short_description": "<string>",
      "confidence": <number between 0.0 and 1.0>
    }
  ],
  "notes": "<optional>"
}

Now produce that JSON using at most 10 sample records for examples.`

// mapPrompt asks the model to place extracted partner fields onto the
// canonical schema leaves.
const mapPrompt = `You are an expert in mapping partner fields to a canonical logistics schema.
Input: a JSON list of partner fields (with partner_field, inferred_type, example_value, short_description, confidence)
and a list of canonical leaf paths (dotted).
Task: for each partner_field, choose the best matching canonical leaf path, or null if no reliable match.

Rules:
1. Match by normalized name first (case-insensitive; underscores and spaces become dots).
2. If no exact normalized match, match by token overlap (e.g. 'receiver.phone' matches 'customer_contact.phone').
3. Prefer the most specific leaf path.
4. If your confidence would be below 0.5, return null for that field.

Return STRICT JSON only in the following shape:
{
  "partner_name": "<partner_name>",
  "canonical_leaves": ["<dot.path.one>", "<another.path>"],
  "mappings": [
    {"partner_field": "<string>", "mapped_to": "<dot.path|null>", "confidence": <0.0-1.0>, "reason": "<short reason>"}
  ]
}
Now map the provided partner fields to the canonical_leaves and return only the JSON.`
