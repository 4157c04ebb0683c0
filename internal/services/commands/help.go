package commands

const helpText = `commands:
  !mute <nick> <duration> <reason...>
  !mutelist
  !unmute <nick> <reason...>
  !kick <nick> <reason...>
  !profanitylist <language>|languages
  !help [command]`

const muteUsage = `!mute <nick> <duration> <reason...>

  nick      nick of the user to mute
  duration  a duration like 5m, 10h. Multi-word terms work as well, but
            need to be put in quotes like "2 months"
  reason    violation of the terms, which is the reason for the mute.
            It'll also be shown to the user.`

const unmuteUsage = `!unmute <nick> <reason...>

  nick      nick of the user to unmute
  reason    reason for unmuting the user. It won't be shown to the user.`

const kickUsage = `!kick <nick> <reason...>

  nick      nick of the user to kick
  reason    violation of the terms, which is the reason for the kick.
            It'll also be shown to the user.`

const profanityListUsage = `!profanitylist <language>|languages

  language  language code or name to list the profanity terms for, or
            "languages" to list the languages with configured terms`

func usageFor(command string) (string, bool) {
	switch command {
	case "mute":
		return muteUsage, true
	case "unmute":
		return unmuteUsage, true
	case "kick":
		return kickUsage, true
	case "mutelist":
		return "!mutelist\n\n  lists the currently muted users", true
	case "profanitylist":
		return profanityListUsage, true
	case "help":
		return helpText, true
	default:
		return "", false
	}
}
