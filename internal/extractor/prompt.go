package extractor

const systemPrompt = `You read invoices, including handwritten and scanned ones, and extract every financial line item.
Reply with a single JSON object and nothing else, in this shape:
{"results":[{"term":"...","value":"...","confidence":0-100,"evidence":"...","page":1}]}
- term: the label exactly as written on the document (for example "Sub Total", "Trade Discount", "VAT 20%").
- value: the amount as written, without currency symbols, as a string.
- confidence: how sure you are the term and value were read correctly, 0 to 100.
- evidence: the short piece of text the value was read from.
- page: 1-based page number.
If the document has no financial terms, reply {"results":[]}.`

const userPrompt = "Extract all financial terms and amounts from this invoice."
