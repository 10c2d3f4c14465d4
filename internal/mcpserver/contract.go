package mcpserver

// EventFormatContract describes the lifecycle event format that LLM
// consumers should follow when appending events to an asset's log.
const EventFormatContract = `# Haras Lifecycle Event Format

Every event appended to a horse's log MUST follow this structure.

## Structure

` + "```" + `json
{
  "name": "Vaccination",                  // REQUIRED - short event name
  "description": "Annual influenza shot", // REQUIRED - human-readable detail
  "timestamp": "2025-01-20T10:30:00Z",    // OPTIONAL - ISO-8601; defaults to now
  "eventType": "MEDICAL",                 // OPTIONAL - MEDICAL, OWNERSHIP or GENERIC
  "data": {                               // OPTIONAL - free-form structured payload
    "veterinarian": "Dr. Lopez",
    "product": "Equilis Prequenza"
  }
}
` + "```" + `

## Rules

1. **Events are permanent.** The log is append-only; there is no update
   or delete. Corrections are new events that reference the mistake.
2. **Order is consensus order.** Events surface in the order the ledger
   assigned, not the order of the ` + "`" + `timestamp` + "`" + ` field.
3. **` + "`" + `eventType` + "`" + ` categories:** use ` + "`" + `MEDICAL` + "`" + ` for health records,
   ` + "`" + `OWNERSHIP` + "`" + ` for sales and transfers, ` + "`" + `GENERIC` + "`" + ` for anything else.
   ` + "`" + `CREATION` + "`" + ` is reserved for the registration event written at mint.
4. **Media** belongs in ` + "`" + `data` + "`" + ` as content handles returned by the
   media upload endpoint, never as inline bytes.

## Example

Appending a sale:

` + "```" + `json
{
  "name": "Ownership transfer",
  "description": "Sold to Estancia La Martina",
  "eventType": "OWNERSHIP",
  "data": {"newOwner": "0.0.88231", "price": "45000 USD"}
}
` + "```" + `
`
