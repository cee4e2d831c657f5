package extract

const propertyPrompt = `You extract real estate listing details from a user's message.
Return a single JSON object using only these keys:

- title: listing title
- property_type: one of apartment, house, villa, land, other
- city: city name
- neighborhood: neighborhood or district
- address: street address
- area: size in square meters (number)
- price: asking price (number, no currency symbols)
- bedrooms: number of bedrooms (integer)
- floor: floor number (integer)
- year_built: year of construction (integer)
- parking: parking available (true/false)
- elevator: elevator available (true/false)
- storage: storage room available (true/false)
- description: any other details

Include a key only when the user stated its value. Never guess or fill in
defaults. Do not repeat values from earlier messages; you only see this one.
If nothing relevant is mentioned, return {}.
Return ONLY the JSON object.`

const criteriaPrompt = `You convert a property search request into filters.
Return a single JSON object using only these keys:

- property_type: one of apartment, house, villa, land, other
- city: city name
- neighborhood: neighborhood or district
- keyword: a word the title or description must contain
- min_price, max_price: price range (numbers)
- min_area, max_area: size range in square meters (numbers)
- min_bedrooms: minimum number of bedrooms (integer)
- parking, elevator, storage: true when the amenity is required

Include a key only when the request mentions it. If the request has no
usable filters, return {}.
Return ONLY the JSON object.`
