package service

// 开户对话的固定话术。阶段推进由 OnboardingService 的转移函数驱动，
// 这里只放文本本身。
const (
	// 开场白，会话创建时作为第一条助手消息写入。
	msgGreeting = "Hi! I'm your QuickVest assistant. I'll help you set up your investment account. Let's start with your name. What should I call you?"

	// 报上名字之后，询问投资目标。
	msgGoalPrompt = "Nice to meet you! Now, let's talk about your investment goals. Are you saving for retirement, a house, or something else?"

	// 风险承受度问题，也是第一个进入“待回答”状态的问题。
	questionRisk = "Great! Next, I need to understand your risk tolerance. On a scale of 1-10, how comfortable are you with market fluctuations? (1 = very conservative, 10 = very aggressive)"

	// 风险分有效后，引导上传证件。
	msgUploadInstruction = "Perfect! For verification purposes, could you please upload a photo of your ID? This helps us keep your account secure."

	// 风险分无效时的重试提示，阶段保持不变。
	msgRiskRetry = "Sorry, I need a whole number between 1 and 10 for this one. How comfortable are you with market fluctuations?"

	// 证件解析成功后的两道适当性问卷。
	questionQuizDrawdown = "Quick check before we finish: if your portfolio dropped 20% in a single month, would you sell everything, hold on, or buy more?"
	questionQuizHorizon  = "Got it. And roughly how long do you plan to stay invested before you'll need this money?"

	// 问卷答完后的收尾消息，触发延迟移交。
	msgClosing = "All done! Let's explore your portfolio. Redirecting you to your dashboard..."

	// 不匹配任何转移规则时的占位提示，绝不改变阶段。
	msgHoldingAwaitingDocument = "Whenever you're ready, use the upload button to send me a photo of your ID so I can finish setting up your account."
	msgHoldingComplete         = "Your setup is already complete. Taking you to your dashboard..."

	// 远端调用失败时的通用致歉，内部错误细节不进入聊天记录。
	msgExtractionApology = "Sorry, I couldn't read that document. Could you try uploading it again?"
	msgHelpApology       = "Sorry, I couldn't look that up right now. Please try asking again."
)

// summaryHeader 用于拼接证件解析结果的展示消息。
const summaryHeader = "Thanks! Your account %s has been created. Here's what I read from your ID:"
