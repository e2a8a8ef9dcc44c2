package constants

// Replies to the invoking member or admin.
const (
	MsgRoleGranted     = "✅ Success! %s has been granted the **%s** role."
	MsgAllRolesRemoved = "✅ Success! All hierarchy roles have been removed from %s."
	MsgHierarchySaved  = "**✅ Role Hierarchy Setup Complete!**\n\nThe following roles have been set in order (Lowest Rank to Highest Rank):\n```\n%s```"
	MsgSettingsSaved   = "**✅ Resign/Break System Setup Complete!**\n\nSettings saved:\n- Break Role: %s\n- Resign Role: %s\n- Public Channel: %s\n- Admin Channel: %s"
	MsgBreakStarted    = "✅ You are now on break. **DM Status: %s**"
	MsgResigned        = "✅ You have resigned. **DM Status: %s**"
	MsgComebackSent    = "Your comeback request has been sent to the Administration team. You will be notified when it is approved."
	MsgComebackPending = "Your comeback request is already waiting for approval."
	MsgComebackDone    = "✅ Successfully approved comeback for **%s**. Roles restored, public announcement sent. **DM Status: %s**"
	MsgPanelSent       = "✅ Breaks & Resignations embed sent successfully to %s."
	MsgPermsComplete   = "**Permission check and setup complete!**\n\n✅ **Global rules applied:** Bot has R/W/Embed/React/Attach access in %d channel(s). @everyone pings are disabled."
	MsgPermsFailure    = "\n❌ Missing permissions to manage channel overwrites in <#%s>. Bot role is too low!"
)

// DM status annotations.
const (
	DMStatusSent            = "DM success."
	DMStatusFailed          = "DM failed (User may have DMs closed)."
	DMStatusComebackSent    = "DM success (Comeback button sent)."
	DMStatusComebackBlocked = "DM failed (User may have DMs closed, comeback request disabled)."
)

// Direct messages.
const (
	DMBreakStarted     = "👋 You have successfully been placed on break in **%s**. The **%s** role has been applied. We hope you have a refreshing time and look forward to your return!"
	DMResigned         = "😭 You have successfully resigned from **%s**. The **%s** role has been applied, and your hierarchy roles have been removed.\n\nTo inform your comeback and request your previous roles restored, click the button below."
	DMComebackApproved = "🎉 Your comeback request in **%s** has been approved by %s! Your previous roles have been restored."
)

// Announcements and embeds.
const (
	TitleBreak            = "⏳ Member Break"
	TitleResign           = "💔 Member Resignation"
	TitleComebackRequest  = "⬆️ Comeback Request"
	TitleComebackApproved = "⬆️ Member Comeback"
	TitlePanel            = "Breaks & Resignations"

	AnnounceBreak          = "%s has taken a break (≥7 days). **DM Status: %s**"
	AnnounceResign         = "%s has resigned. We thank them for their service! **DM Status: %s**"
	AnnounceComeback       = "%s has come back to their previous role(s): **%s**"
	ComebackRequestBody    = "**%s** (%s) has requested to return to staff/rank structure in **%s**."
	FieldSavedRoles        = "Previous Roles Saved"
	FieldAction            = "Action"
	FieldActionValue       = "Click the button below to restore their roles and remove the resign role."
	PanelDescription       = "If you want to take a break (≥7 Days) then click on the `Break` button below. And if you want to resign then click on the `Resign` button below.\n\n**Note:** These buttons are active only for members who hold an established hierarchy rank."
	NoSavedRoles           = "None"
	AuditReasonRankChange  = "Hierarchy action: Setting new rank."
	AuditReasonRankRemoval = "Hierarchy action: Removing previous rank(s)."
	AuditReasonBreak       = "Member taking a break."
	AuditReasonResignStrip = "Member resigned: Removing hierarchy roles."
	AuditReasonResignAdd   = "Member resigned: Applying resign role."
	AuditReasonComebackOff = "Comeback approved: Removing resign role."
	AuditReasonComebackOn  = "Comeback approved: Restoring previous hierarchy roles."
)

// Audit reasons for undoing a half-applied change.
const (
	AuditReasonResignRollback = "Resign failed: Restoring hierarchy roles."
	AuditReasonRankRestore    = "Hierarchy action failed: Restoring previous rank(s)."
)

// Button labels.
const (
	ButtonBreak             = "Break"
	ButtonResign            = "Resign"
	ButtonInformComeback    = "Inform Comeback"
	ButtonComebackRequested = "Comeback Requested"
	ButtonApproveComeback   = "Approve Comeback"
	ButtonComebackApproved  = "Comeback Approved"
)
