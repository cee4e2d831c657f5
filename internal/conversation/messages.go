package conversation

const (
	msgWelcome = "Hi! I help you manage property listings. Tell me what you'd like to do, by text or voice."

	msgSelectGoal = "What would you like to do?"

	msgNoGoal = "Please choose what you want to do first: register, search, filter, edit or list your properties."

	msgHelp = `How it works:
1. Pick a goal: register, search, filter, edit or list.
2. Describe the property in your own words, by text or voice.
3. I keep what you told me and ask only for what is missing.
4. Review the summary and reply "confirm" to save or "cancel" to discard.

While reviewing you can still change things ("price is 500k") or remove them ("delete the description").

Commands:
/start - start over
/cancel - abort the current action
/help - show this message`

	msgRegisterStart = `Describe the property you want to register. For example:
"2-bedroom apartment in Chelsea, New York, 85 square meters, $650,000, with parking."

I need at least a title, type, city, area and price.`

	msgSearchStart = `What are you looking for? For example:
"apartments in New York under $700,000 with at least 2 bedrooms."`

	msgFilterStart = "Send a word or phrase to look for in titles, descriptions and addresses."

	msgEditStart = `Which property do you want to edit? Describe it ("the apartment in Chelsea") or say "show all properties".`

	msgEditNeedFilters = `I couldn't tell which property you mean. Mention a city, type or price, or say "show all properties".`

	msgEditNoMatches = `None of your properties match that. Try different details or say "show all properties".`

	msgEditPrompt = `What should change? For example "price is now $700,000" or "remove the description".`

	msgEditNotUnderstood = `I didn't catch any change. Tell me the new values, or say "delete the X" to remove a field.`

	msgSelectFromList = "Please pick one of the properties from the latest list."

	msgNoProperties = "You haven't registered any properties yet."

	msgNotFound = "That property doesn't exist or isn't yours."

	msgNoResults = "No properties match your criteria."

	msgSearchNeedCriteria = "I couldn't find any search criteria in that. Mention a type, city, price range, size or amenities."

	msgFilterNeedKeyword = "Send the word or phrase you want to look for."

	msgNothingNew = "I couldn't find any property details in that."

	msgNoChange = `I didn't catch a change. Reply "confirm" to save, "cancel" to discard, or tell me what to change.`

	msgConfirmPrompt = `Is everything correct? Reply "confirm" to save or "cancel" to discard. You can still change any field.`

	msgSuggestedTitle = "I suggested a title. Send a different one if you prefer."

	msgCancelled = "Cancelled. Nothing was saved."

	msgSaveFailed = `Sorry, I couldn't save the property. Your data is kept; reply "confirm" to try again.`

	msgUpdateFailed = "Sorry, I couldn't update the property. Please send the change again."

	msgLoadFailed = "Sorry, I couldn't load your properties. Please try again."

	msgExtractFailed = "Sorry, I couldn't process that right now. Please try again in a moment."

	msgVoiceUnavailable = "Voice messages are unavailable right now. Please type your message instead."

	msgVoiceNotRecognized = "I couldn't make out any words in that voice message. Please try again or type it."

	msgDeleteAsk = "Delete this property? This cannot be undone."

	msgDeleted = "Property deleted."

	msgDeleteKept = "OK, the property was kept."

	msgDeleteFailed = "Sorry, I couldn't delete the property. Please try again."

	msgUnknownCommand = "Unknown command. Send /help to see what I can do."

	msgUnknownAction = "That button has expired. Send /start to begin again."
)
