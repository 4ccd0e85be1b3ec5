package common

// PropertyDefaultIssueAssignee is the property key holding the login of the
// default issue assignee. Rows carrying it are purged when that login is
// deactivated.
const PropertyDefaultIssueAssignee = "issues.defaultAssigneeLogin"
